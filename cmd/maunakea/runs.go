package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/storage"
)

var (
	flagRunsScenario string
	flagRunsLimit    int
	flagRunsBest     bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Long: `Display recent runs from the run history database, newest first.
With --best, print the script of the shortest successful run of a scenario.

Examples:
  maunakea runs --db ~/.maunakea/runs.db
  maunakea runs --scenario lake --limit 5
  maunakea runs --scenario lake --best`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&flagRunsScenario, "scenario", "", "Only show runs of this scenario")
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum number of runs to show")
	runsCmd.Flags().BoolVar(&flagRunsBest, "best", false, "Print the script of the shortest successful run")
}

func runRuns(cmd *cobra.Command, args []string) error {
	dbPath := config.Cfg().Storage.DBPath
	if dbPath == "" {
		return errors.New("no run database: pass --db or set storage.db_path")
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagRunsBest {
		if flagRunsScenario == "" {
			return errors.New("--best needs --scenario")
		}
		best, err := store.BestRun(flagRunsScenario)
		if err != nil {
			return err
		}
		if best == nil {
			return fmt.Errorf("no successful run of %q", flagRunsScenario)
		}
		fmt.Printf("# run %d, %s, %d frames\n", best.ID, best.Mode, best.Frames)
		fmt.Print(best.Script)
		return nil
	}

	runs, err := store.RecentRuns(flagRunsScenario, flagRunsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("  %-5s  %-16s  %-6s  %-9s  %-6s  %-3s  %-9s  %s\n", "ID", "Scenario", "Mode", "Status", "Frames", "CP", "Elapsed", "Date")
	fmt.Printf("  %-5s  %-16s  %-6s  %-9s  %-6s  %-3s  %-9s  %s\n", "--", "--------", "----", "------", "------", "--", "-------", "----")
	for _, r := range runs {
		fmt.Printf("  %-5d  %-16s  %-6s  %-9s  %-6d  %-3d  %-9s  %s\n",
			r.ID, r.Scenario, r.Mode, r.Status, r.Frames, r.Checkpoints,
			r.Duration.String(), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
