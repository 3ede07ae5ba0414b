// Package keepwarm keeps the model resident so warm instances answer
// without paying the load cost.
package keepwarm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/utils"
)

const jobName = "keep-warm"

// Keeper loads the model at start and pings the backend on an interval so it
// is never evicted.
type Keeper struct {
	scheduler gocron.Scheduler
	loader    *llm.Loader
	model     string
	interval  time.Duration
	minWarm   int
	logger    utils.Logger

	ticks    atomic.Int64
	failures atomic.Int64
	cancel   context.CancelFunc
}

// New prepares a keeper for the generate_response function of manifest.
func New(cfg *config.Config, manifest *config.Manifest, loader *llm.Loader) (*Keeper, error) {
	if manifest == nil {
		manifest = config.DefaultManifest()
	}
	logger := cfg.GetLogger()

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Keeper{
		scheduler: s,
		loader:    loader,
		model:     cfg.Model,
		interval:  cfg.KeepWarmInterval,
		minWarm:   manifest.Generate.MinWarm,
		logger:    logger,
	}, nil
}

// Enabled reports whether warm instances were requested.
func (k *Keeper) Enabled() bool {
	return k.minWarm >= 1 && k.interval > 0
}

// Start schedules the warm-up job and runs it immediately. It is a no-op when
// no warm instances are requested.
func (k *Keeper) Start(ctx context.Context) error {
	if !k.Enabled() {
		k.logger.Debug("Keep-warm disabled", "min_warm", k.minWarm, "interval", k.interval)
		return nil
	}

	ctx, k.cancel = context.WithCancel(ctx)
	job, err := k.scheduler.NewJob(
		gocron.DurationJob(k.interval),
		gocron.NewTask(func() { k.tick(ctx) }),
		gocron.WithName(jobName),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		k.cancel()
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	k.scheduler.Start()

	logAttrs := []any{"job_name", jobName, "interval", k.interval, "min_warm", k.minWarm}
	if nextRun, err := job.NextRun(); err == nil {
		logAttrs = append(logAttrs, "next_run", nextRun.Format(time.RFC3339))
	}
	k.logger.Info("Keep-warm scheduled", logAttrs...)
	return nil
}

// Stop cancels any in-flight work and waits for the scheduler to drain.
func (k *Keeper) Stop() error {
	if k.cancel != nil {
		k.cancel()
	}
	if err := k.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// Ticks returns how many times the job has run.
func (k *Keeper) Ticks() int64 { return k.ticks.Load() }

// Failures returns how many runs ended in an error.
func (k *Keeper) Failures() int64 { return k.failures.Load() }

// tick loads the model when it is absent and otherwise refreshes the
// backend's residency timer.
func (k *Keeper) tick(ctx context.Context) {
	defer k.ticks.Add(1)

	state := k.loader.Current()
	if state == nil {
		if err := k.loader.Warm(ctx); err != nil {
			k.failures.Add(1)
			k.logger.Warn("Warm-up load failed", "error", err)
		}
		return
	}

	if err := state.Backend.KeepAlive(ctx, k.model); err != nil {
		k.failures.Add(1)
		k.logger.Warn("Keep-alive failed", "backend", state.Backend.Name(), "error", err)
		return
	}
	k.logger.Debug("Keep-alive sent", "backend", state.Backend.Name())
}
