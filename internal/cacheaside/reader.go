package cacheaside

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/metrics"
)

// Reader serves entity views from the cache, loading and caching them from
// the primary store on a miss. Not-found lookups are never cached.
type Reader struct {
	core
}

// NewReader builds a Reader from cfg.
func NewReader(cfg Config) (*Reader, error) {
	c, err := newCore(cfg)
	if err != nil {
		return nil, err
	}
	return &Reader{core: c}, nil
}

// Fetch returns the JSON snapshot of view for the entity identified by
// (entityType, id). found is false when the primary store has no such entity.
// Cache failures degrade to a store read; store failures are returned as
// errors.ErrBackendUnavailable.
func (r *Reader) Fetch(ctx context.Context, entityType, id, view string) (json.RawMessage, bool, error) {
	kind, err := resolve(entityType, id, view)
	if err != nil {
		return nil, false, err
	}

	ctx, span := r.cfg.Tracer.Start(ctx, "cacheaside.Fetch", trace.WithAttributes(
		attribute.String("entity.type", kind.Name),
		attribute.String("entity.view", viewLabel(view)),
	))
	defer span.End()

	key := Key(kind.Name, id, view)
	log := r.log.With(zap.String("key", key))

	cached, hit, cacheErr := r.cacheGet(ctx, key)
	switch {
	case cacheErr != nil:
		log.Warn("cache read failed, falling back to store", zap.Error(cacheErr))
		metrics.CacheDegraded.WithLabelValues("get").Inc()
		metrics.CacheLookups.WithLabelValues(kind.Name, viewLabel(view), metrics.ResultError).Inc()
	case hit && isObject(cached):
		metrics.CacheLookups.WithLabelValues(kind.Name, viewLabel(view), metrics.ResultHit).Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return json.RawMessage(cached), true, nil
	case hit:
		log.Warn("discarding corrupt cache entry")
		metrics.CacheLookups.WithLabelValues(kind.Name, viewLabel(view), metrics.ResultCorrupt).Inc()
	default:
		metrics.CacheLookups.WithLabelValues(kind.Name, viewLabel(view), metrics.ResultMiss).Inc()
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	storeCtx, cancel := r.storeContext(ctx)
	start := time.Now()
	doc, found, err := r.cfg.Store.FindByID(storeCtx, kind, id)
	cancel()
	observeStore("find", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		log.Error("store read failed", zap.Error(err))
		return nil, false, errors.Unavailable(err)
	}
	if !found {
		return nil, false, nil
	}

	payload, err := Encode(kind, view, doc)
	if err != nil {
		span.RecordError(err)
		return nil, false, errors.ErrInternalServer.WithInternal(err)
	}

	if err := r.cacheSet(ctx, key, payload); err != nil {
		log.Warn("cache write failed, serving uncached", zap.Error(err))
		metrics.CacheDegraded.WithLabelValues("set").Inc()
	}

	return json.RawMessage(payload), true, nil
}

func observeStore(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.StoreLatency.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}
