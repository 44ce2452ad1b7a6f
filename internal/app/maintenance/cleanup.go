package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/logger"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/metrics"
)

const (
	// JobCachePurge removes expired rows from caches that do not expire entries on their own.
	JobCachePurge = "cache_purge"

	defaultPurgeSpec  = "@hourly"
	defaultJobTimeout = time.Minute
	resultSuccess     = "success"
	resultFailure     = "failure"
)

// Cleaner coordinates background maintenance tasks such as purging expired
// cache entries from the SQL cache table or the in-process LRU.
type Cleaner struct {
	purger  cache.Purger
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger
	timeout time.Duration

	purgeSchedule string

	mu   sync.Mutex
	jobs map[string]*monitoring.JobStatus
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used to stamp job runs.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithPurgeSchedule overrides the cron specification for the cache purge.
func WithPurgeSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.purgeSchedule = spec
		}
	}
}

// WithJobTimeout bounds a single job execution.
func WithJobTimeout(timeout time.Duration) Option {
	return func(cleaner *Cleaner) {
		if timeout > 0 {
			cleaner.timeout = timeout
		}
	}
}

// NewCleaner constructs a Cleaner for store. Stores that do not implement
// cache.Purger, such as Redis, leave the cleaner with nothing to do.
func NewCleaner(store cache.Store, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		now:           time.Now,
		timeout:       defaultJobTimeout,
		purgeSchedule: defaultPurgeSpec,
		log:           logger.WithModule("maintenance"),
		jobs:          make(map[string]*monitoring.JobStatus),
	}
	if purger, ok := store.(cache.Purger); ok {
		cleaner.purger = purger
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	if cleaner.purger != nil {
		cleaner.jobs[JobCachePurge] = &monitoring.JobStatus{Job: JobCachePurge}
	}
	return cleaner
}

// Enabled reports whether any job is registered.
func (c *Cleaner) Enabled() bool {
	return c != nil && c.purger != nil
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.Enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.purgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.purgeCache(ctx); err != nil {
			c.log.Warn("cache purge failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %s: %w", JobCachePurge, err)
	}

	c.cron.Start()
	c.log.Info("maintenance scheduler started", zap.String("cache_purge_schedule", c.purgeSchedule))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c == nil || c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.purger != nil {
		errs = multierr.Append(errs, c.purgeCache(ctx))
	}
	return errs
}

// Jobs reports the run history of every registered job, ordered by name.
func (c *Cleaner) Jobs() []monitoring.JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]monitoring.JobStatus, 0, len(c.jobs))
	for _, job := range c.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

func (c *Cleaner) purgeCache(ctx context.Context) error {
	if c.purger == nil {
		return errors.New("maintenance: cache purger is not configured")
	}

	removed, err := c.purger.PurgeExpired(ctx)
	c.record(JobCachePurge, err)
	if err != nil {
		return fmt.Errorf("maintenance: %s: %w", JobCachePurge, err)
	}
	if removed > 0 {
		c.log.Debug("expired cache entries purged", zap.Int64("removed", removed))
	}
	return nil
}

func (c *Cleaner) record(job string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.jobs[job]
	if !ok {
		status = &monitoring.JobStatus{Job: job}
		c.jobs[job] = status
	}
	status.TotalRuns++
	status.LastRunAt = c.now()
	if err != nil {
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		return
	}
	status.ConsecutiveFailures = 0
	status.LastError = ""
}
