package cacheaside

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/metrics"
)

// Mutator applies atomic counter increments in the primary store and writes
// the refreshed views through to the cache.
type Mutator struct {
	core
}

// NewMutator builds a Mutator from cfg.
func NewMutator(cfg Config) (*Mutator, error) {
	c, err := newCore(cfg)
	if err != nil {
		return nil, err
	}
	return &Mutator{core: c}, nil
}

// Increment adds delta to the counter field of the entity and returns the
// refreshed snapshot of the first view carrying that field. The returned
// payload is nil when the increment succeeded but the refresh read did not;
// refresh failures never fail the call.
func (m *Mutator) Increment(ctx context.Context, entityType, id, field string, delta int64) (json.RawMessage, error) {
	kind, err := resolve(entityType, id, "")
	if err != nil {
		return nil, err
	}
	if !kind.IsCounter(field) {
		return nil, errors.NewBadRequest("Invalid counter field")
	}
	if delta == 0 {
		return nil, errors.NewBadRequest("Increment must be non-zero")
	}

	ctx, span := m.cfg.Tracer.Start(ctx, "cacheaside.Increment", trace.WithAttributes(
		attribute.String("entity.type", kind.Name),
		attribute.String("counter.field", field),
		attribute.Int64("counter.delta", delta),
	))
	defer span.End()

	log := m.log.With(zap.String("entity", kind.Name), zap.String("id", id), zap.String("field", field))

	if err := m.increment(ctx, kind, id, field, delta); err != nil {
		result := "failure"
		if errors.IsNotFound(err) {
			result = "not_found"
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "increment failed")
			log.Error("counter increment failed", zap.Error(err))
		}
		metrics.CounterIncrements.WithLabelValues(kind.Name, field, result).Inc()
		return nil, err
	}
	metrics.CounterIncrements.WithLabelValues(kind.Name, field, "success").Inc()

	return m.refresh(ctx, log, kind, id, field), nil
}

func (m *Mutator) increment(ctx context.Context, kind *models.Kind, id, field string, delta int64) error {
	storeCtx, cancel := m.storeContext(ctx)
	defer cancel()

	start := time.Now()
	_, found, err := m.cfg.Store.FindByID(storeCtx, kind, id)
	observeStore("find", start, err)
	if err != nil {
		return errors.Unavailable(err)
	}
	if !found {
		return NotFound(kind)
	}

	start = time.Now()
	err = m.cfg.Store.AtomicIncrement(storeCtx, kind, id, field, delta)
	if stderrors.Is(err, store.ErrNotFound) {
		observeStore("increment", start, nil)
		return NotFound(kind)
	}
	observeStore("increment", start, err)
	if err != nil {
		return errors.Unavailable(err)
	}
	return nil
}

// refreshAttempts bounds how often refresh rewrites views while concurrent
// increments keep moving the counters.
const refreshAttempts = 3

// refresh re-reads the entity and overwrites every cached view that shows
// field. After writing it reads the store again: a snapshot that is no longer
// current is rewritten, so a slow write from an overlapping increment cannot
// leave an older count behind. Views that never settle are evicted.
func (m *Mutator) refresh(ctx context.Context, log *zap.Logger, kind *models.Kind, id, field string) json.RawMessage {
	views := viewsContaining(kind, field)

	doc, ok := m.reload(ctx, log, kind, id)
	if !ok {
		for _, view := range views {
			metrics.CacheRefreshes.WithLabelValues(kind.Name, viewLabel(view), "failure").Inc()
		}
		return nil
	}

	for attempt := 1; ; attempt++ {
		written, first := m.writeViews(ctx, log, kind, id, views, doc)
		if len(written) == 0 || m.cfg.Cache == nil {
			return first
		}

		latest, ok := m.reload(ctx, log, kind, id)
		if !ok || settled(kind, written, latest) {
			return first
		}
		doc = latest

		if attempt == refreshAttempts {
			m.evict(ctx, log, kind, id, views)
			payload, _ := Encode(kind, views[0], latest)
			return payload
		}
	}
}

// reload reads the current document for a refresh.
func (m *Mutator) reload(ctx context.Context, log *zap.Logger, kind *models.Kind, id string) (models.Document, bool) {
	storeCtx, cancel := m.storeContext(ctx)
	defer cancel()

	start := time.Now()
	doc, found, err := m.cfg.Store.FindByID(storeCtx, kind, id)
	observeStore("find", start, err)
	if err != nil || !found {
		log.Warn("refresh read failed, cached views stay stale until expiry", zap.Error(err), zap.Bool("found", found))
		return nil, false
	}
	return doc, true
}

// writeViews encodes doc for each view and sets it in the cache. It returns
// the payloads that were stored, keyed by view, and the payload of the first
// view.
func (m *Mutator) writeViews(ctx context.Context, log *zap.Logger, kind *models.Kind, id string, views []string, doc models.Document) (map[string][]byte, json.RawMessage) {
	written := make(map[string][]byte, len(views))
	var first json.RawMessage
	for _, view := range views {
		payload, err := Encode(kind, view, doc)
		if err != nil {
			log.Warn("refresh encode failed", zap.String("view", viewLabel(view)), zap.Error(err))
			metrics.CacheRefreshes.WithLabelValues(kind.Name, viewLabel(view), "failure").Inc()
			continue
		}
		if first == nil {
			first = payload
		}

		if err := m.cacheSet(ctx, Key(kind.Name, id, view), payload); err != nil {
			log.Warn("cache refresh failed", zap.String("view", viewLabel(view)), zap.Error(err))
			metrics.CacheDegraded.WithLabelValues("set").Inc()
			metrics.CacheRefreshes.WithLabelValues(kind.Name, viewLabel(view), "failure").Inc()
			continue
		}
		metrics.CacheRefreshes.WithLabelValues(kind.Name, viewLabel(view), "success").Inc()
		written[view] = payload
	}
	return written, first
}

// settled reports whether every written payload still matches latest.
func settled(kind *models.Kind, written map[string][]byte, latest models.Document) bool {
	for view, payload := range written {
		current, err := Encode(kind, view, latest)
		if err != nil || !bytes.Equal(current, payload) {
			return false
		}
	}
	return true
}

// evict drops views whose counters kept changing so the next read reloads them.
func (m *Mutator) evict(ctx context.Context, log *zap.Logger, kind *models.Kind, id string, views []string) {
	keys := make([]string, 0, len(views))
	for _, view := range views {
		keys = append(keys, Key(kind.Name, id, view))
		metrics.CacheRefreshes.WithLabelValues(kind.Name, viewLabel(view), "evicted").Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.CacheTimeout)
	defer cancel()
	if err := m.cfg.Cache.Delete(ctx, keys...); err != nil {
		log.Warn("evicting unsettled views failed", zap.Error(err))
		metrics.CacheDegraded.WithLabelValues("delete").Inc()
		return
	}
	log.Debug("views evicted after concurrent updates", zap.Strings("keys", keys))
}
