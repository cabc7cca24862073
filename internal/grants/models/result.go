package models

import "time"

// AttributeOutcome records how a single role application went. The caller
// needs per-role detail to report back to the operator, so Grant never
// collapses to a single pass/fail.
type AttributeOutcome struct {
	AttributeID int64  `json:"attribute_id"`
	Applied     bool   `json:"applied"`
	Retryable   bool   `json:"retryable,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// GrantResult enumerates the outcome of every role touched by one grant
// request.
type GrantResult struct {
	Permanent []AttributeOutcome `json:"permanent"`
	Temporary AttributeOutcome   `json:"temporary"`
	ExpiresAt time.Time          `json:"expires_at,omitempty"`
}

// AnyApplied reports whether at least one role landed on the remote side.
func (r *GrantResult) AnyApplied() bool {
	if r.Temporary.Applied {
		return true
	}
	for _, o := range r.Permanent {
		if o.Applied {
			return true
		}
	}
	return false
}

// StatusEntry is one row of a member's status query: a held temporary role
// and either the remaining duration or "pending cleanup" once past expiry.
type StatusEntry struct {
	AttributeID    int64         `json:"attribute_id"`
	Remaining      time.Duration `json:"remaining,omitempty"`
	PendingCleanup bool          `json:"pending_cleanup,omitempty"`
	ExpiresAt      time.Time     `json:"expires_at"`
}
