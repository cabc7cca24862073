// Package ledger unifies the durable grant store and the in-memory fallback
// cache behind one contract. Callers never see store outages: operations
// degrade to the fallback with a logged warning instead of failing.
package ledger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"rolekeeper/internal/grants/metrics"
	"rolekeeper/internal/grants/models"
	"rolekeeper/internal/grants/store"
)

// Ledger fronts a primary (durable) store with an in-memory fallback. Writes
// always land in the fallback as well, so a mid-run primary outage leaves a
// usable mirror of recent state.
type Ledger struct {
	primary  store.Store
	fallback *store.InMemoryStore
	logger   *slog.Logger
	metrics  *metrics.Metrics

	degradations atomic.Int64
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// New builds a ledger over the given primary store. A nil primary means the
// durable store was unreachable at startup; the ledger then runs entirely on
// the fallback cache.
func New(primary store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		primary:  primary,
		fallback: store.NewInMemory(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record upserts a grant by its unique triple.
func (l *Ledger) Record(ctx context.Context, grant *models.Grant) error {
	// The fallback mirror is kept current on every write so a later primary
	// outage still has recent state to serve from.
	if err := l.fallback.Record(ctx, grant); err != nil {
		return err
	}
	if l.primary == nil {
		l.degrade("record", nil)
		return nil
	}
	if err := l.primary.Record(ctx, grant); err != nil {
		l.degrade("record", err)
	}
	return nil
}

// ListExpired returns all grants past expiry as of now.
func (l *Ledger) ListExpired(ctx context.Context, now time.Time) ([]*models.Grant, error) {
	if l.primary != nil {
		grants, err := l.primary.ListExpired(ctx, now)
		if err == nil {
			return grants, nil
		}
		l.degrade("list_expired", err)
	} else {
		l.degrade("list_expired", nil)
	}
	return l.fallback.ListExpired(ctx, now)
}

// ListBySubject returns every tracked grant for a member, including rows
// past expiry that the sweeper has not yet removed.
func (l *Ledger) ListBySubject(ctx context.Context, subjectID, scopeID int64) ([]*models.Grant, error) {
	if l.primary != nil {
		grants, err := l.primary.ListBySubject(ctx, subjectID, scopeID)
		if err == nil {
			return grants, nil
		}
		l.degrade("list_by_subject", err)
	} else {
		l.degrade("list_by_subject", nil)
	}
	return l.fallback.ListBySubject(ctx, subjectID, scopeID)
}

// Delete removes a grant row. Deleting an absent triple is not an error; the
// bool reports whether a row existed in either store.
func (l *Ledger) Delete(ctx context.Context, key models.Key) (bool, error) {
	existedFallback, _ := l.fallback.Delete(ctx, key)
	if l.primary == nil {
		l.degrade("delete", nil)
		return existedFallback, nil
	}
	existed, err := l.primary.Delete(ctx, key)
	if err != nil {
		l.degrade("delete", err)
		return existedFallback, nil
	}
	return existed || existedFallback, nil
}

// Degradations reports how many operations have fallen back to the in-memory
// cache since startup.
func (l *Ledger) Degradations() int64 {
	return l.degradations.Load()
}

func (l *Ledger) degrade(op string, err error) {
	l.degradations.Add(1)
	if l.metrics != nil {
		l.metrics.RecordDegradation()
	}
	if err != nil {
		l.logger.Warn("grant store unavailable, serving from fallback cache",
			"op", op,
			"error", err,
		)
		return
	}
	l.logger.Warn("grant store not configured, serving from fallback cache", "op", op)
}
