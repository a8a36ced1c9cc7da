package cctp_relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/services/bridge"
)

// Relayer advances tracked transfers
type Relayer interface {
	RelayPending(ctx context.Context, batch int) (*bridge.RelaySummary, error)
}

// Config controls the relay schedule
type Config struct {
	Schedule   string // cron spec, e.g. "@every 30s"
	BatchSize  int
	RunTimeout time.Duration
}

// DefaultConfig returns a 30s schedule relaying 25 transfers per run
func DefaultConfig() Config {
	return Config{
		Schedule:   "@every 30s",
		BatchSize:  25,
		RunTimeout: 5 * time.Minute,
	}
}

// Worker relays transfers registered for auto-relay on a cron schedule
type Worker struct {
	relayer Relayer
	config  Config
	cron    *cron.Cron
	logger  *zap.Logger
}

func NewWorker(relayer Relayer, config Config, logger *zap.Logger) *Worker {
	defaults := DefaultConfig()
	if config.Schedule == "" {
		config.Schedule = defaults.Schedule
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = defaults.RunTimeout
	}

	cronLog := cronLogger{logger.Sugar()}
	return &Worker{
		relayer: relayer,
		config:  config,
		cron: cron.New(
			cron.WithLogger(cronLog),
			// A slow run must not overlap the next one.
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger: logger,
	}
}

// Start schedules the relay job
func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.config.RunTimeout)
		defer cancel()

		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error("CCTP relay run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid relay schedule %q: %w", w.config.Schedule, err)
	}

	w.cron.Start()
	w.logger.Info("CCTP relay worker started",
		zap.String("schedule", w.config.Schedule),
		zap.Int("batch_size", w.config.BatchSize))
	return nil
}

// RunOnce relays one batch and logs the outcome
func (w *Worker) RunOnce(ctx context.Context) (*bridge.RelaySummary, error) {
	start := time.Now()
	summary, err := w.relayer.RelayPending(ctx, w.config.BatchSize)
	if err != nil {
		return summary, err
	}

	if summary.Examined > 0 {
		w.logger.Info("CCTP relay run completed",
			zap.Int("examined", summary.Examined),
			zap.Int("minted", summary.Minted),
			zap.Int("pending", summary.Pending),
			zap.Int("completed", summary.Completed),
			zap.Int("failed", summary.Failed),
			zap.Int("errors", summary.Errors),
			zap.Duration("duration", time.Since(start)))
	}
	return summary, nil
}

// Stop stops scheduling and waits for a running job to finish
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("CCTP relay worker stopped")
}

// Shutdown stops the worker, giving up on a running job after timeout
func (w *Worker) Shutdown(timeout time.Duration) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		w.logger.Info("CCTP relay worker stopped")
		return nil
	case <-time.After(timeout):
		return errors.New("cctp relay worker did not stop in time")
	}
}

// cronLogger routes cron's own logging through zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
