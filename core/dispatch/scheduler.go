package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightningtw/dispatchd/core/dispatch/cyclelog"
	"github.com/lightningtw/dispatchd/core/events"
	"github.com/lightningtw/dispatchd/core/health"
	"github.com/lightningtw/dispatchd/core/ledger"
	"github.com/lightningtw/dispatchd/core/logger"
	"github.com/lightningtw/dispatchd/core/metrics"
	"github.com/lightningtw/dispatchd/core/model"
	"github.com/lightningtw/dispatchd/core/scoring"
	"github.com/lightningtw/dispatchd/core/threshold"
	"github.com/lightningtw/dispatchd/internal/eventbus"
)

// ModuleKey is the scheduler's key in the health register. The scheduler
// never touches another module's entry.
const ModuleKey = "dispatch"

// State labels the phase a cycle is in.
type State string

const (
	StateFetching   State = "FETCHING"
	StateScoring    State = "SCORING"
	StateRanking    State = "RANKING"
	StateCommitting State = "COMMITTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// CycleResult is the transient aggregate of one scheduler run. Its effects
// are persisted as individual ledger events, never as a unit.
type CycleResult struct {
	StartedAt   time.Time
	State       State
	Threshold   float64
	Candidates  int
	Accepted    int
	Failed      int
	Skipped     int
	Errors      int
	Duration    time.Duration
	AcceptedIDs []string
	FailedIDs   []string
	SkippedIDs  []string
}

// Scheduler drives dispatch cycles. All collaborators are injected once at
// construction; there is no ambient shared state.
type Scheduler struct {
	cfg       Config
	source    OrderSource
	accept    AcceptanceClient
	notify    NotificationSink
	heat      HeatSource
	scorer    scoring.Strategy
	predictor threshold.Predictor
	ledger    ledger.Store
	register  *health.Register
	sink      metrics.MetricsSink
	bus       eventbus.EventBus
	cycles    cyclelog.Store
	log       logger.Logger

	// commitMu serializes the commit phase across overlapping cycles so the
	// accepted-count cap is checked-then-incremented atomically.
	commitMu sync.Mutex
}

// NewScheduler creates a scheduler. The source, acceptance client, scorer,
// predictor and ledger are required; the remaining collaborators default to
// no-ops.
func NewScheduler(cfg Config, source OrderSource, accept AcceptanceClient, scorer scoring.Strategy,
	predictor threshold.Predictor, store ledger.Store, opts ...Option) (*Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil || accept == nil || scorer == nil || predictor == nil || store == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewScheduler")
	}
	s := &Scheduler{
		cfg:       cfg,
		source:    source,
		accept:    accept,
		scorer:    scorer,
		predictor: predictor,
		ledger:    store,
		heat:      StaticHeat(0),
		sink:      metrics.NopSink{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	return s, nil
}

// Option configures optional scheduler collaborators.
type Option func(*Scheduler)

func WithNotifier(n NotificationSink) Option       { return func(s *Scheduler) { s.notify = n } }
func WithHeatSource(h HeatSource) Option           { return func(s *Scheduler) { s.heat = h } }
func WithHealthRegister(r *health.Register) Option { return func(s *Scheduler) { s.register = r } }
func WithMetrics(m metrics.MetricsSink) Option     { return func(s *Scheduler) { s.sink = m } }
func WithEventBus(b eventbus.EventBus) Option      { return func(s *Scheduler) { s.bus = b } }
func WithCycleLog(c cyclelog.Store) Option         { return func(s *Scheduler) { s.cycles = c } }
func WithLogger(l logger.Logger) Option            { return func(s *Scheduler) { s.log = l } }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// RunCycle executes one fetch→score→rank→commit cycle. Per-order errors are
// isolated inside the commit loop; an unrecoverable cycle error moves the
// cycle through FAILED to DONE and is reported, never panicking the owner.
func (s *Scheduler) RunCycle(ctx context.Context) (res CycleResult, err error) {
	start := time.Now()
	res = CycleResult{StartedAt: start, State: StateFetching}
	if t := s.cfg.CycleTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch cycle panic: %v", r)
		}
		res.Duration = time.Since(start)
		if err != nil {
			// The cycle ends through FAILED; the owning loop keeps running.
			res.State = StateFailed
			s.reportFailure(err)
		} else {
			res.State = StateDone
		}
		s.finish(res, err)
	}()

	orders, err := s.fetchAll(ctx)
	if err != nil {
		return res, err
	}
	res.Candidates = len(orders)

	res.State = StateScoring
	regionHeat := s.heat.RegionHeat(ctx)
	now := time.Now()
	scored := s.scorer.Score(orders, now, regionHeat)
	res.Threshold = s.predictor.Predict(orders, now, regionHeat)

	res.State = StateRanking
	scoring.Rank(scored)

	res.State = StateCommitting
	if err := s.commit(ctx, scored, &res); err != nil {
		return res, err
	}
	return res, nil
}

// fetchAll queries every platform concurrently and merges the results by
// concatenation. A platform failure is a warning unless every platform fails.
func (s *Scheduler) fetchAll(ctx context.Context) ([]model.Order, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		orders []model.Order
		errs   []error
	)
	for _, platform := range s.cfg.Platforms {
		wg.Add(1)
		go func(platform string) {
			defer wg.Done()
			got, err := s.source.Fetch(ctx, platform)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warnf("fetch %s failed: %v", platform, err)
				errs = append(errs, fmt.Errorf("%s: %w", platform, err))
				return
			}
			orders = append(orders, got...)
		}(platform)
	}
	wg.Wait()
	if len(errs) == len(s.cfg.Platforms) {
		return nil, fmt.Errorf("all platforms failed: %v", errs[0])
	}
	return orders, nil
}

// commit walks the ranked list sequentially, accepting orders until the
// concurrency cap is reached. Skipping (below threshold) and failing
// (retries exhausted) are distinct outcomes; only the latter emits an event.
// A context deadline mid-commit aborts the loop: orders the platform never
// saw get no event, and the cycle ends through FAILED. Events already
// appended stand.
func (s *Scheduler) commit(ctx context.Context, ranked []model.ScoredOrder, res *CycleResult) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	for _, o := range ranked {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("commit interrupted after %d of %d order(s): %w",
				res.Accepted+res.Failed+res.Skipped, len(ranked), err)
		}
		if res.Accepted >= s.cfg.MaxConcurrentOrders {
			s.log.Infof("max concurrent orders reached (%d), stopping commit", s.cfg.MaxConcurrentOrders)
			break
		}
		if o.ValueScore < res.Threshold {
			s.log.Infof("ignored %s priority order %s from %s with value score %.2f",
				o.Priority, o.ID, o.Platform, o.ValueScore)
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, o.ID)
			s.recordOutcome(o, "skipped")
			continue
		}
		if err := s.acceptWithRetry(ctx, o); err != nil {
			if ctx.Err() != nil {
				// The order failed because the cycle died, not on its merits.
				return fmt.Errorf("commit interrupted at order %s: %w", o.ID, ctx.Err())
			}
			s.log.Errorf("order %s failed after retries: %v", o.ID, err)
			s.appendOrderEvent(ctx, model.EventOrderFailed, o, err)
			res.Failed++
			res.Errors++
			res.FailedIDs = append(res.FailedIDs, o.ID)
			s.recordOutcome(o, "failed")
			if s.bus != nil {
				s.bus.Publish(events.OrderFailed{Order: o, Err: err.Error(), Time: time.Now()})
			}
			continue
		}
		s.appendOrderEvent(ctx, model.EventOrderAccepted, o, nil)
		res.Accepted++
		res.AcceptedIDs = append(res.AcceptedIDs, o.ID)
		s.log.Infof("accepted %s priority order %s from %s with value score %.2f",
			o.Priority, o.ID, o.Platform, o.ValueScore)
		s.recordOutcome(o, "accepted")
		if s.bus != nil {
			s.bus.Publish(events.OrderAccepted{Order: o, Time: time.Now()})
		}
		s.notifyOutcome(ctx, o)
	}
	return nil
}

// acceptWithRetry calls the acceptance client with a fixed inter-attempt
// delay. Only transient failures are retried; the budget is per order, never
// per cycle.
func (s *Scheduler) acceptWithRetry(ctx context.Context, o model.ScoredOrder) error {
	var err error
	for attempt := 0; attempt <= s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.cfg.RetryDelay()):
			case <-ctx.Done():
				return fmt.Errorf("accept %s: %w", o.ID, ctx.Err())
			}
		}
		if err = s.accept.Accept(ctx, o); err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		s.log.Warnf("accept %s attempt %d/%d failed: %v", o.ID, attempt+1, s.cfg.RetryAttempts+1, err)
	}
	return err
}

func (s *Scheduler) appendOrderEvent(ctx context.Context, typ model.EventType, o model.ScoredOrder, cause error) {
	data := map[string]any{
		"order_id":    o.ID,
		"platform":    o.Platform,
		"price":       o.Price,
		"value_score": o.ValueScore,
		"priority":    o.Priority.String(),
	}
	if cause != nil {
		data["error"] = cause.Error()
	}
	if _, err := s.ledger.Append(ctx, typ, data); err != nil {
		s.log.Errorf("ledger append %s for order %s failed: %v", typ, o.ID, err)
	}
}

func (s *Scheduler) notifyOutcome(ctx context.Context, o model.ScoredOrder) {
	if s.notify == nil {
		return
	}
	msg := fmt.Sprintf("%s priority order %s from %s accepted: %.2f TWD",
		o.Priority, o.ID, o.Platform, o.Price)
	if err := s.notify.Notify(ctx, msg, o.Priority); err != nil {
		s.log.Warnf("notification for order %s failed: %v", o.ID, err)
	}
}

func (s *Scheduler) recordOutcome(o model.ScoredOrder, outcome string) {
	if err := s.sink.RecordOrderOutcome(metrics.OrderOutcome{
		OrderID:    o.ID,
		Platform:   o.Platform,
		Priority:   o.Priority.String(),
		ValueScore: o.ValueScore,
		Outcome:    outcome,
		Time:       time.Now(),
	}); err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
}

// reportFailure surfaces an unrecoverable cycle error through the
// notification collaborator with high priority.
func (s *Scheduler) reportFailure(err error) {
	s.log.Errorf("dispatch cycle failed: %v", err)
	if s.register != nil {
		s.register.Set(ModuleKey, health.StateError, err.Error())
	}
	if s.notify != nil {
		nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if nerr := s.notify.Notify(nctx, fmt.Sprintf("dispatch cycle failed: %v", err), model.PriorityHigh); nerr != nil {
			s.log.Warnf("failure notification failed: %v", nerr)
		}
	}
}

// finish records timings, metrics, the audit record and the bus event for a
// completed cycle.
func (s *Scheduler) finish(res CycleResult, cause error) {
	if s.register != nil {
		s.register.RecordTiming(ModuleKey, res.Duration.Seconds())
		s.register.RecordErrors(ModuleKey, res.Errors)
		if cause == nil {
			s.register.Set(ModuleKey, health.StateOK, "")
		}
	}
	if err := s.sink.RecordCycle(metrics.CycleStats{
		Threshold:  res.Threshold,
		Candidates: res.Candidates,
		Accepted:   res.Accepted,
		Failed:     res.Failed,
		Skipped:    res.Skipped,
		Duration:   res.Duration,
		Time:       res.StartedAt,
	}); err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
	if s.cycles != nil {
		rec := cyclelog.CycleRecord{
			Timestamp:  res.StartedAt,
			Threshold:  res.Threshold,
			Candidates: res.Candidates,
			Accepted:   res.AcceptedIDs,
			Failed:     res.FailedIDs,
			Skipped:    res.SkippedIDs,
			Duration:   res.Duration,
		}
		if cause != nil {
			rec.Error = cause.Error()
		}
		if err := s.cycles.Append(context.Background(), rec); err != nil {
			s.log.Errorf("cycle log append failed: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.CycleCompleted{
			Threshold:  res.Threshold,
			Candidates: res.Candidates,
			Accepted:   res.Accepted,
			Failed:     res.Failed,
			Skipped:    res.Skipped,
			Duration:   res.Duration,
			Time:       res.StartedAt,
		})
	}
	s.log.Infof("dispatch cycle done in %.4fs: %d candidates, %d accepted, %d failed, %d skipped",
		res.Duration.Seconds(), res.Candidates, res.Accepted, res.Failed, res.Skipped)
}
