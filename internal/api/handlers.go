package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/goodtune/tubetime/internal/session"
	"github.com/goodtune/tubetime/internal/storage"
	"github.com/gorilla/mux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleBudget returns today's budget projection.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Status(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute budget state")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to compute budget state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type watchRequest struct {
	ItemID         string `json:"item_id"`
	ChannelTitle   string `json:"channel_title"`
	SecondsWatched int64  `json:"seconds_watched"`
	Completed      bool   `json:"completed"`
	ManualPlay     bool   `json:"manual_play"`
	GracePlay      bool   `json:"grace_play"`
}

type watchResponse struct {
	State       interface{}           `json:"state"`
	WarningsDue []storage.WarningTier `json:"warnings_due"`
}

// handleWatch appends a watch event and returns the recomputed state.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid JSON body")
		return
	}

	res, err := s.svc.RecordWatch(r.Context(), session.WatchRequest{
		ItemID:         req.ItemID,
		ChannelTitle:   req.ChannelTitle,
		SecondsWatched: req.SecondsWatched,
		Completed:      req.Completed,
		ManualPlay:     req.ManualPlay,
		GracePlay:      req.GracePlay,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrValidation):
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		case errors.Is(err, session.ErrGraceConsumed):
			writeError(w, http.StatusConflict, codeConflict, "Grace play already consumed today")
		default:
			s.logger.Error().Err(err).Msg("Failed to record watch")
			writeError(w, http.StatusInternalServerError, codeStorage, "Failed to record watch")
		}
		return
	}

	due := res.WarningsDue
	if due == nil {
		due = []storage.WarningTier{}
	}
	writeJSON(w, http.StatusOK, watchResponse{State: res.State, WarningsDue: due})
}

type warningRequest struct {
	Tier    int       `json:"tier"`
	ShownAt time.Time `json:"shown_at"`
}

// handleWarning records a warning display.
func (s *Server) handleWarning(w http.ResponseWriter, r *http.Request) {
	var req warningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid JSON body")
		return
	}

	if err := s.svc.RecordWarning(r.Context(), req.Tier, req.ShownAt); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"recorded": true})
}

type selectionRequest struct {
	Count              int   `json:"count"`
	MaxDurationSeconds int64 `json:"max_duration_seconds"`
}

// handleSelection builds the on-screen grid for the current state.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid JSON body")
		return
	}
	if req.Count < 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "count must not be negative")
		return
	}

	res, err := s.svc.Select(r.Context(), req.Count, req.MaxDurationSeconds)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build selection")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to build selection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": res.State,
		"items": res.Items,
	})
}

// handleGrace returns the bonus-play offering, or 409 once consumed.
func (s *Server) handleGrace(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.OfferGrace(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrGraceConsumed) {
			writeError(w, http.StatusConflict, codeConflict, "Grace play already consumed today")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to offer grace")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to offer grace")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// handleGetSettings returns the stored settings (or seeded defaults).
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings().Get(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "No settings saved yet")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read settings")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePutSettings stores new settings; they take effect on the next
// computation, no restart or cache flush involved.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings storage.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid JSON body")
		return
	}
	if settings.DailyLimitMinutes <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "daily_limit_minutes must be positive")
		return
	}
	if settings.GridSize <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "grid_size must be positive")
		return
	}

	if err := s.store.Settings().Put(r.Context(), settings); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store settings")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to store settings")
		return
	}

	s.logger.Info().
		Int("daily_limit_minutes", settings.DailyLimitMinutes).
		Int("grid_size", settings.GridSize).
		Msg("Settings updated")
	writeJSON(w, http.StatusOK, settings)
}

// handleListItems returns the full catalog, including banned and unavailable
// items, for the admin surface.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.Catalog().ListItems(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list catalog")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to list catalog")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

type upsertItemRequest struct {
	Title           string `json:"title"`
	ChannelTitle    string `json:"channel_title"`
	DurationSeconds int64  `json:"duration_seconds"`
	Available       bool   `json:"available"`
}

// handleUpsertItem is the seeding endpoint for the external ingestion job.
func (s *Server) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req upsertItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid JSON body")
		return
	}
	if req.DurationSeconds <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "duration_seconds must be positive")
		return
	}

	existing, err := s.store.Catalog().GetItem(r.Context(), id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to read catalog item")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to read catalog item")
		return
	}

	item := storage.VideoItem{
		ID:              id,
		Title:           req.Title,
		ChannelTitle:    req.ChannelTitle,
		DurationSeconds: req.DurationSeconds,
		Available:       req.Available,
		UpdatedAt:       time.Now().UTC(),
	}
	// The ban flag belongs to the parent, not the ingestion job.
	if existing != nil {
		item.Banned = existing.Banned
	}

	if err := s.store.Catalog().UpsertItem(r.Context(), item); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to upsert catalog item")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to upsert catalog item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type banRequest struct {
	Banned bool `json:"banned"`
}

// handleBanItem flips the ban flag on behalf of the admin surface.
func (s *Server) handleBanItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid JSON body")
		return
	}

	if err := s.store.Catalog().SetBanned(r.Context(), id, req.Banned); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Catalog item not found")
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to update ban flag")
		writeError(w, http.StatusInternalServerError, codeStorage, "Failed to update ban flag")
		return
	}

	s.logger.Info().Str("id", id).Bool("banned", req.Banned).Msg("Catalog ban flag updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "banned": req.Banned})
}
