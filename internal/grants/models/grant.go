package models

import "time"

// Grant is a tracked temporary role held by a member, with a defined expiry.
//
// Invariants:
//   - The (SubjectID, ScopeID, AttributeID) triple is unique; re-granting the
//     same triple replaces ExpiresAt/CreatedAt in place (upsert), it never
//     creates a second row
//   - ExpiresAt is strictly after CreatedAt
//   - A row exists iff the manager believes the role is currently applied on
//     the remote platform (best effort; may be briefly stale after a remote
//     failure)
//
// State machine: Active (ExpiresAt in the future) → ExpiredPending (past
// expiry, row still present) → removed (row deleted, terminal). The sweeper
// is the only mutator from ExpiredPending to removed.
type Grant struct {
	SubjectID   int64     `json:"subject_id"`
	ScopeID     int64     `json:"scope_id"`
	AttributeID int64     `json:"attribute_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// State describes where a grant sits in its lifecycle.
type State string

const (
	StateActive         State = "active"
	StateExpiredPending State = "expired_pending"
)

// State reports the grant's lifecycle state as of now.
func (g *Grant) State(now time.Time) State {
	if now.Before(g.ExpiresAt) {
		return StateActive
	}
	return StateExpiredPending
}

// Remaining returns the time left until expiry, or zero if already expired.
// Callers render the zero case as "pending cleanup", never as a negative
// duration.
func (g *Grant) Remaining(now time.Time) time.Duration {
	if d := g.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Key identifies a grant by its unique triple.
type Key struct {
	SubjectID   int64
	ScopeID     int64
	AttributeID int64
}

func (g *Grant) Key() Key {
	return Key{SubjectID: g.SubjectID, ScopeID: g.ScopeID, AttributeID: g.AttributeID}
}
