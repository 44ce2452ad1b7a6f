package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/api"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/app"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/app/maintenance"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cacheaside"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/middleware"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring/checks"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/services"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/telemetry"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/logger"
)

const startupPingTimeout = 5 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Store     store.Store
	Cache     cache.Store
	Reader    *cacheaside.Reader
	Mutator   *cacheaside.Mutator
	Posts     *services.PostService
	Users     *services.UserService
	Health    *monitoring.HealthManager
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine

	shutdownTracing telemetry.ShutdownFunc
}

// bootstrapRuntime initialises the primary store, the cache, the cache-aside
// core, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.shutdownTracing, err = telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise tracing: %w", err)
	}

	storeCfg := cfg.Store.StoreOptions()
	stack.Store, err = store.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info("store connected", zap.String("driver", strings.ToLower(strings.TrimSpace(storeCfg.Driver))))

	stack.Cache, err = openCache(ctx, cfg, stack.Store, log)
	if err != nil {
		return nil, err
	}

	core := cacheaside.Config{
		Store:        stack.Store,
		Cache:        stack.Cache,
		TTL:          cfg.Cache.TTL,
		CacheTimeout: cfg.Cache.Timeout,
		StoreTimeout: cfg.Store.Timeout,
	}
	if stack.Reader, err = cacheaside.NewReader(core); err != nil {
		return nil, fmt.Errorf("initialise reader: %w", err)
	}
	if stack.Mutator, err = cacheaside.NewMutator(core); err != nil {
		return nil, fmt.Errorf("initialise mutator: %w", err)
	}

	if stack.Posts, err = services.NewPostService(stack.Store, stack.Reader, stack.Mutator); err != nil {
		return nil, fmt.Errorf("initialise post service: %w", err)
	}
	stack.Posts.WithStoreTimeout(cfg.Store.Timeout)

	if stack.Users, err = services.NewUserService(stack.Store, stack.Reader); err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	stack.Users.WithStoreTimeout(cfg.Store.Timeout)

	stack.Cleaner = maintenance.NewCleaner(stack.Cache, maintenance.WithPurgeSchedule(cfg.Maintenance.CachePurgeSchedule))
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	if cfg.Monitoring.Health.Enabled {
		stack.Health = monitoring.NewHealthManager()
		stack.Health.RegisterReadiness(checks.Store(stack.Store))
		stack.Health.RegisterReadiness(checks.Cache(stack.Cache))
		if stack.Cleaner.Enabled() {
			stack.Health.RegisterReadiness(checks.Maintenance(stack.Cleaner, 0))
		}
	}

	stack.RateStore = middleware.NewRateStore(stack.Cache)

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:    cfg,
		Posts:     stack.Posts,
		Users:     stack.Users,
		Health:    stack.Health,
		RateStore: stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// openCache builds the configured cache backend. A Redis that does not answer
// at start-up is kept: the client reconnects on later calls and the
// cache-aside core absorbs errors until then.
func openCache(ctx context.Context, cfg *app.Config, st store.Store, log *zap.Logger) (cache.Store, error) {
	var db *gorm.DB
	if gs, ok := st.(*store.GormStore); ok {
		db = gs.DB()
	}

	c, err := cache.Open(cfg.Cache.Options(db))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if c == nil {
		log.Info("cache disabled")
		return nil, nil
	}

	backend := cacheBackendName(cfg.Cache.Backend)
	if pinger, ok := c.(cache.Pinger); ok {
		timeout := cfg.Cache.Redis.Timeout
		if timeout <= 0 {
			timeout = startupPingTimeout
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("cache unreachable; reads fall back to the primary store until it recovers",
				zap.String("backend", backend), zap.Error(err))
			return c, nil
		}
	}

	log.Info("cache ready", zap.String("backend", backend))
	return c, nil
}

func cacheBackendName(backend string) string {
	if backend = strings.ToLower(strings.TrimSpace(backend)); backend != "" {
		return backend
	}
	return cache.BackendMemory
}

// Shutdown stops background jobs and releases resources in reverse order of acquisition.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) error {
	if s == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		if s.Cleaner.Enabled() {
			if err := s.Cleaner.RunOnce(ctx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}
	}

	if s.Cache != nil {
		if err := cache.Close(s.Cache); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close cache: %w", err))
		}
	}

	if s.Store != nil {
		if err := s.Store.Close(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = multierr.Append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}

	if errs != nil {
		log.Warn("runtime shutdown incomplete", zap.Error(errs))
	}
	return errs
}

func bootstrapLogger() *zap.Logger {
	return logger.WithModule("bootstrap")
}
