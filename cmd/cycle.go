package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lightningtw/dispatchd/app"
	"github.com/lightningtw/dispatchd/config"
	"github.com/lightningtw/dispatchd/infra/logger"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a single dispatch cycle and exit",
	RunE:  runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("cycle-command").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Scheduler.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("dispatch cycle: %w", err)
	}
	fmt.Printf("cycle done: threshold=%.2f candidates=%d accepted=%d failed=%d skipped=%d\n",
		res.Threshold, res.Candidates, len(res.AcceptedIDs), len(res.FailedIDs), len(res.SkippedIDs))
	for _, id := range res.AcceptedIDs {
		fmt.Println("accepted:", id)
	}
	return nil
}
