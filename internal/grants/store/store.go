// Package store provides the durable and in-memory implementations of the
// grant table. Stores are pure I/O; expiry decisions and revocation ordering
// belong to the sweeper and service layers.
package store

import (
	"context"
	"time"

	"rolekeeper/internal/grants/models"
)

// Store is the contract shared by the PostgreSQL store and the in-memory
// fallback. Record upserts by the unique (subject, scope, attribute) triple;
// Delete is idempotent and reports whether a row existed.
type Store interface {
	Record(ctx context.Context, grant *models.Grant) error
	ListExpired(ctx context.Context, now time.Time) ([]*models.Grant, error)
	ListBySubject(ctx context.Context, subjectID, scopeID int64) ([]*models.Grant, error)
	Delete(ctx context.Context, key models.Key) (bool, error)
}
