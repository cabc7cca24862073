package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the remote client
// return these (optionally wrapped) so services can translate them into
// per-attribute outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrUnavailable: durable store or remote platform temporarily unreachable
// - ErrRateLimited: remote platform rejected the call for quota reasons
// - ErrForbidden: remote platform denied permission for the operation
// - ErrAlreadyApplied: target already in the desired state on the remote side
var (
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("unavailable")
	ErrRateLimited    = errors.New("rate limited")
	ErrForbidden      = errors.New("forbidden")
	ErrAlreadyApplied = errors.New("already applied")
)
