package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/tubetime/internal/budget"
	"github.com/goodtune/tubetime/internal/config"
	"github.com/goodtune/tubetime/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	checkAt      string
	checkCount   int
	checkMaxSecs int64
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check budget state and selection interactively",
	Long:  `Check what TubeTime would compute for the daily budget or offer on the selection grid, without going through the HTTP API.`,
}

var checkBudgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Check today's budget projection",
	Long:  `Project the stored watch ledger into the daily budget state: minutes watched, minutes remaining, and the resulting viewing phase.`,
	Example: `  tubetime -c config.yaml check budget
  tubetime check budget --at 2026-08-25T19:30:00Z`,
	Args: cobra.NoArgs,
	RunE: runCheckBudget,
}

var checkSelectionCmd = &cobra.Command{
	Use:   "selection",
	Short: "Check what the selection grid would offer",
	Long:  `Build the on-screen grid the kiosk would receive for the current budget state.`,
	Example: `  tubetime -c config.yaml check selection
  tubetime check selection --count 4 --max-duration 600 --at 2026-08-25T19:30:00Z`,
	Args: cobra.NoArgs,
	RunE: runCheckSelection,
}

func init() {
	checkCmd.PersistentFlags().StringVar(&checkAt, "at", "", "Evaluate at a fixed instant (RFC 3339) - defaults to now")

	checkSelectionCmd.Flags().IntVar(&checkCount, "count", 0, "Number of items to draw - defaults to the configured grid size")
	checkSelectionCmd.Flags().Int64Var(&checkMaxSecs, "max-duration", 0, "Only offer items at most this many seconds long")

	checkCmd.AddCommand(checkBudgetCmd)
	checkCmd.AddCommand(checkSelectionCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheckBudget(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := buildCheckService()
	if err != nil {
		return err
	}
	defer closeStore()

	state, err := svc.Status(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute budget state: %w", err)
	}

	printBudgetResult(state)

	return nil
}

func runCheckSelection(cmd *cobra.Command, args []string) error {
	if checkCount < 0 {
		return fmt.Errorf("count must not be negative: %d", checkCount)
	}

	svc, closeStore, err := buildCheckService()
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := svc.Select(context.Background(), checkCount, checkMaxSecs)
	if err != nil {
		return fmt.Errorf("failed to build selection: %w", err)
	}

	printSelectionResult(res)

	return nil
}

// buildCheckService loads configuration, opens storage, and wires a session
// service on either the real clock or the --at override.
func buildCheckService() (*session.Service, func(), error) {
	clock, err := parseCheckClock(checkAt)
	if err != nil {
		return nil, nil, err
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create a quiet logger for check mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	svc := buildService(cfg, store, clock, logger)

	return svc, func() { _ = store.Close() }, nil
}

// parseCheckClock returns the real clock, or a fixed one when --at is set.
func parseCheckClock(atStr string) (budget.Clock, error) {
	if atStr == "" {
		return budget.UTCClock{}, nil
	}

	at, err := time.Parse(time.RFC3339, atStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --at value %q: expected RFC 3339, e.g. 2026-08-25T19:30:00Z", atStr)
	}

	return &budget.TestClock{CurrentTime: at.UTC()}, nil
}

// printBudgetResult prints the budget check result with colors
func printBudgetResult(state budget.DailyState) {
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("DAILY BUDGET CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Day:        %s (UTC)\n", state.Day)
	fmt.Printf("Limit:      %d minutes\n", state.LimitMinutes)
	fmt.Printf("Watched:    %d minutes\n", state.MinutesWatched)
	fmt.Printf("Remaining:  %d minutes\n", state.MinutesRemaining)
	fmt.Printf("Resets At:  %s\n", state.ResetAt.Format(time.RFC3339))
	fmt.Println()

	cyan.Print("State:      ")
	printState(state.State)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

// printSelectionResult prints the selection check result with colors
func printSelectionResult(res session.SelectionResult) {
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("SELECTION GRID CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Day:        %s (UTC)\n", res.State.Day)
	fmt.Printf("Remaining:  %d minutes\n", res.State.MinutesRemaining)
	cyan.Print("State:      ")
	printState(res.State.State)
	fmt.Println()

	if len(res.Items) == 0 {
		fmt.Println("No items offered.")
	} else {
		fmt.Printf("Items (%d):\n", len(res.Items))
		for i, item := range res.Items {
			dur := time.Duration(item.DurationSeconds) * time.Second
			fmt.Printf("  %2d. %-40s %8s  %s\n", i+1, item.Title, dur, item.ChannelTitle)
		}
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

func printState(state budget.State) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	switch state {
	case budget.StateNormal:
		green.Println("NORMAL")
		fmt.Println("            → Full catalog is offered")
	case budget.StateWindDown:
		yellow.Println("WIND-DOWN")
		fmt.Println("            → Only items that fit the remaining time are offered")
	case budget.StateGrace:
		yellow.Println("GRACE")
		fmt.Println("            → Budget exhausted; one short bonus item may be played")
	case budget.StateLocked:
		red.Println("LOCKED")
		fmt.Println("            → No items until the UTC midnight reset")
	default:
		fmt.Printf("UNKNOWN (%s)\n", state)
	}
}
