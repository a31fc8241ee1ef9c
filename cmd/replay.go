package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightningtw/dispatchd/config"
	"github.com/lightningtw/dispatchd/core/ledger"
	"github.com/lightningtw/dispatchd/core/task"
	"github.com/lightningtw/dispatchd/infra/logger"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild task state from the ledger and print it",
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("replay-command")
	var store ledger.Store
	switch cfg.Ledger.Backend {
	case "sqlite":
		store, err = ledger.NewSQLiteStore(cfg.Ledger.Path, logg)
	default:
		store, err = ledger.NewJSONLStore(cfg.Ledger.Path, logg)
	}
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logg.Errorf("ledger close: %v", cerr)
		}
	}()

	ctx := context.Background()
	projection, err := task.NewProjection(ctx, store, logg)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	tasks := projection.List()
	if len(tasks) == 0 {
		fmt.Println("no tasks in ledger")
		return nil
	}
	for _, t := range tasks {
		fmt.Printf("%s  %-16s  %s\n", t.ID, t.Status, t.Description)
	}
	return nil
}
