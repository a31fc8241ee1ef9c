package app

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningtw/dispatchd/config"
	"github.com/lightningtw/dispatchd/core/dispatch"
	"github.com/lightningtw/dispatchd/core/dispatch/cyclelog"
	"github.com/lightningtw/dispatchd/core/health"
	"github.com/lightningtw/dispatchd/core/ledger"
	coremetrics "github.com/lightningtw/dispatchd/core/metrics"
	"github.com/lightningtw/dispatchd/core/payout"
	"github.com/lightningtw/dispatchd/core/scoring"
	"github.com/lightningtw/dispatchd/core/task"
	"github.com/lightningtw/dispatchd/core/threshold"
	"github.com/lightningtw/dispatchd/infra/logger"
	"github.com/lightningtw/dispatchd/infra/metrics"
	"github.com/lightningtw/dispatchd/infra/notify"
	"github.com/lightningtw/dispatchd/infra/source"
	"github.com/lightningtw/dispatchd/internal/eventbus"
)

// Service wires the scheduler, its collaborators and the periodic loops. The
// loops share no mutable state except the ledger and the health register.
type Service struct {
	Scheduler  *dispatch.Scheduler
	Projection *task.Projection
	Register   *health.Register

	cfg      *config.Config
	ledger   ledger.Store
	cycles   *cyclelog.RotatingJSONLStore
	payouts  *payout.Store
	recorder *payout.Recorder
	mqttSink *notify.MQTTSink
	bus      *eventbus.Bus
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store, err := newLedger(cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	projection, err := task.NewProjection(ctx, store, logger.New("projection"))
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}

	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	predictor := threshold.MeanPricePredictor{Floor: cfg.Threshold.Floor, Peak: engine.IsPeak}

	sink, err := newMetricsSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	svc := &Service{cfg: cfg, ledger: store, log: logg}
	var notifier dispatch.NotificationSink = notify.LogSink{Log: logger.New("notify")}
	if cfg.Notify.Enabled {
		mqttSink, err := notify.NewMQTTSink(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("notify sink: %w", err)
		}
		svc.mqttSink = mqttSink
		notifier = mqttSink
	}

	cycles, err := cyclelog.NewRotatingJSONLStore(cfg.CycleLog.Path,
		cfg.CycleLog.MaxSizeMB, cfg.CycleLog.MaxBackups, cfg.CycleLog.MaxAgeDays)
	if err != nil {
		return nil, fmt.Errorf("cycle log: %w", err)
	}
	svc.cycles = cycles

	bus := eventbus.New()
	svc.bus = bus
	register := health.NewRegister()
	svc.Register = register

	if cfg.Payout.Enabled {
		payouts, err := payout.NewStore(cfg.Payout.Path)
		if err != nil {
			return nil, fmt.Errorf("payout store: %w", err)
		}
		svc.payouts = payouts
		svc.recorder = payout.NewRecorder(payouts, bus, logger.New("payout"))
	}

	timeout := cfg.Dispatch.CycleTimeout()
	scheduler, err := dispatch.NewScheduler(
		cfg.Dispatch,
		source.NewHTTPSource(cfg.Platforms, timeout),
		source.NewHTTPAcceptClient(cfg.Platforms, timeout),
		engine,
		predictor,
		store,
		dispatch.WithNotifier(notifier),
		dispatch.WithHeatSource(dispatch.StaticHeat(cfg.Threshold.RegionHeat)),
		dispatch.WithHealthRegister(register),
		dispatch.WithMetrics(sink),
		dispatch.WithEventBus(bus),
		dispatch.WithCycleLog(cycles),
		dispatch.WithLogger(logger.New("dispatch")),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	svc.Scheduler = scheduler
	svc.Projection = projection
	return svc, nil
}

func newLedger(cfg *config.Config) (ledger.Store, error) {
	log := logger.New("ledger")
	switch cfg.Ledger.Backend {
	case "sqlite":
		return ledger.NewSQLiteStore(cfg.Ledger.Path, log)
	default:
		return ledger.NewJSONLStore(cfg.Ledger.Path, log)
	}
}

func newMetricsSink(cfg *config.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

// Run starts the periodic loops and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.recorder != nil {
		go s.recorder.Run(ctx)
	}
	go s.healthLoop(ctx)
	go s.retentionLoop(ctx)
	s.dispatchLoop(ctx)
	return nil
}

// dispatchLoop runs one cycle immediately, then on every tick. A failed cycle
// is reported and the loop sleeps until the next scheduled run.
func (s *Service) dispatchLoop(ctx context.Context) {
	if _, err := s.Scheduler.RunCycle(ctx); err != nil {
		s.log.Errorf("dispatch cycle: %v", err)
	}
	ticker := time.NewTicker(s.cfg.Loops.CycleInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.Scheduler.RunCycle(ctx); err != nil {
				s.log.Errorf("dispatch cycle: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthLoop resets modules stuck in an error state after the recovery
// interval. Recovery policy lives here, outside the modules themselves.
func (s *Service) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Loops.HealthInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, module := range s.Register.Modules() {
				st, ok := s.Register.Get(module)
				if !ok || st.State != health.StateError {
					continue
				}
				if time.Since(st.UpdatedAt) >= s.cfg.Loops.Recovery() {
					s.log.Infof("module %s recovered from: %s", module, st.Message)
					s.Register.Set(module, health.StateOK, "")
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// retentionLoop forces a rotation of the cycle audit log.
func (s *Service) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Loops.RetentionInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.cycles.Rotate(); err != nil {
				s.log.Errorf("cycle log rotation: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases resources held by the service. The ledger closes last so an
// in-flight append can complete.
func (s *Service) Close() error {
	if s.mqttSink != nil {
		s.mqttSink.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if s.payouts != nil {
		if err := s.payouts.Close(); err != nil {
			return err
		}
	}
	if s.cycles != nil {
		if err := s.cycles.Close(); err != nil {
			return err
		}
	}
	return s.ledger.Close()
}
