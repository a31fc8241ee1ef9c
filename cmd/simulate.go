package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lightningtw/dispatchd/core/dispatch"
	"github.com/lightningtw/dispatchd/core/ledger"
	"github.com/lightningtw/dispatchd/core/model"
	"github.com/lightningtw/dispatchd/core/review"
	"github.com/lightningtw/dispatchd/core/scoring"
	"github.com/lightningtw/dispatchd/core/task"
	"github.com/lightningtw/dispatchd/core/threshold"
	"github.com/lightningtw/dispatchd/infra/logger"
	"github.com/lightningtw/dispatchd/infra/source"
)

var simulateReject bool

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the task pipeline and a dispatch cycle against canned data",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateReject, "reject", false, "make the reviewer reject the generated content")
	rootCmd.AddCommand(simulateCmd)
}

// okAccept accepts every order. The simulation exercises the scheduler, not
// the platforms.
type okAccept struct{}

func (okAccept) Accept(ctx context.Context, o model.ScoredOrder) error { return nil }

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "dispatchd-sim")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	logg := logger.New("simulate")
	store, err := ledger.NewJSONLStore(filepath.Join(dir, "ledger.log"), logg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := simulateTask(ctx, store, logg); err != nil {
		return err
	}
	return simulateCycle(ctx, store)
}

func simulateTask(ctx context.Context, store ledger.Store, logg logger.Logger) error {
	projection, err := task.NewProjection(ctx, store, logg)
	if err != nil {
		return err
	}
	t, err := projection.Create(ctx, "summarize yesterday's accepted orders", "radar_station")
	if err != nil {
		return err
	}
	fmt.Printf("task %s created: %s\n", t.ID, t.Status)

	if _, err := projection.Transition(ctx, t.ID, model.StatusAIProcessing); err != nil {
		return err
	}
	content, err := review.MockGenerator{}.Generate(ctx, t.Description)
	if err != nil {
		return err
	}
	verdict, err := review.MockReviewer{Reject: simulateReject}.Review(ctx, content)
	if err != nil {
		return err
	}
	fmt.Printf("review verdict: %s (confidence %.2f)\n", verdict.Result, verdict.Confidence)

	next := model.StatusReviewApproved
	if !verdict.Approved() {
		next = model.StatusFailedReview
	}
	t, err = projection.Transition(ctx, t.ID, next)
	if err != nil {
		return err
	}
	if t.Status == model.StatusFailedReview {
		fmt.Printf("task %s ended: %s\n", t.ID, t.Status)
		return nil
	}
	for _, st := range []model.TaskStatus{model.StatusAssigned, model.StatusInProgress, model.StatusCompleted} {
		if t, err = projection.Transition(ctx, t.ID, st); err != nil {
			return err
		}
	}
	fmt.Printf("task %s ended: %s\n", t.ID, t.Status)
	return nil
}

func simulateCycle(ctx context.Context, store ledger.Store) error {
	var cfg scoring.Config
	cfg.SetDefaults()
	cfg.PlatformWeights = map[string]float64{"foodpanda": 1.1, "ubereats": 1.0}
	engine, err := scoring.NewEngine(cfg)
	if err != nil {
		return err
	}

	src := source.StaticSource{Orders: map[string][]model.Order{
		"foodpanda": {
			{ID: "sim-001", Price: 120, UserRating: 4.8, DistanceKm: 1.2},
			{ID: "sim-002", Price: 45, UserRating: 3.9, DistanceKm: 4.5},
		},
		"ubereats": {
			{ID: "sim-003", Price: 200, UserRating: 4.2, DistanceKm: 2.0},
		},
	}}
	scheduler, err := dispatch.NewScheduler(
		dispatch.Config{Platforms: []string{"foodpanda", "ubereats"}, CycleTimeoutSeconds: 30},
		src,
		okAccept{},
		engine,
		threshold.MeanPricePredictor{Floor: 10, Peak: engine.IsPeak},
		store,
		dispatch.WithLogger(logger.New("sim-dispatch")),
	)
	if err != nil {
		return err
	}
	res, err := scheduler.RunCycle(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("cycle done in %s: threshold=%.2f candidates=%d accepted=%v skipped=%v\n",
		res.Duration.Round(time.Millisecond), res.Threshold, res.Candidates, res.AcceptedIDs, res.SkippedIDs)
	return nil
}
