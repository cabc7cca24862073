// Package service implements the grant lifecycle manager: role application
// with per-role outcomes, temporary-grant recording, and status queries.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rolekeeper/internal/discord"
	"rolekeeper/internal/grants/ledger"
	"rolekeeper/internal/grants/metrics"
	"rolekeeper/internal/grants/models"
)

// RoleClient issues role mutations against the remote platform. Both calls
// are idempotent at the call site.
type RoleClient interface {
	AddRole(ctx context.Context, guildID, userID, roleID int64, reason string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID int64, reason string) error
}

// Service orchestrates grant creation and status queries. It is the only
// component the command front end talks to.
type Service struct {
	ledger  *ledger.Ledger
	client  RoleClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// managedRoles is the full set of role ids this service hands out.
	// Granting replaces any previously held roles from this set.
	managedRoles []int64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithManagedRoles(roleIDs []int64) Option {
	return func(s *Service) {
		s.managedRoles = roleIDs
	}
}

func New(l *ledger.Ledger, client RoleClient, opts ...Option) (*Service, error) {
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	if client == nil {
		return nil, errors.New("role client is required")
	}

	svc := &Service{
		ledger: l,
		client: client,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Grant applies the permanent roles and the temporary role to a member. Each
// permanent role is independent: one failing blocks neither the others nor
// the temporary grant. The ledger row is written only after the temporary
// role lands remotely, so the ledger never claims a role Discord did not
// apply.
func (s *Service) Grant(ctx context.Context, subjectID, scopeID int64, permanent []int64, temporary int64, ttl time.Duration) (*models.GrantResult, error) {
	if ttl <= 0 {
		return nil, errors.New("grant ttl must be positive")
	}

	s.removeExistingManaged(ctx, subjectID, scopeID, permanent)

	result := &models.GrantResult{}
	for _, roleID := range permanent {
		result.Permanent = append(result.Permanent, s.applyRole(ctx, subjectID, scopeID, roleID, "granted via stage assignment"))
	}

	result.Temporary = s.applyRole(ctx, subjectID, scopeID, temporary, "temporary cooldown role")
	if !result.Temporary.Applied {
		return result, nil
	}

	now := s.now()
	grant := &models.Grant{
		SubjectID:   subjectID,
		ScopeID:     scopeID,
		AttributeID: temporary,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
	if err := s.ledger.Record(ctx, grant); err != nil {
		// Only the fallback cache can fail here, and only on programmer
		// error; surface it rather than silently losing the expiry.
		return result, err
	}
	result.ExpiresAt = grant.ExpiresAt
	if s.metrics != nil {
		s.metrics.RecordGrant()
	}
	s.logger.Info("temporary grant recorded",
		"subject_id", subjectID,
		"scope_id", scopeID,
		"attribute_id", temporary,
		"expires_at", grant.ExpiresAt,
	)
	return result, nil
}

// Status reports each tracked grant for a member with its remaining
// duration, or pending cleanup once past expiry but not yet swept.
func (s *Service) Status(ctx context.Context, subjectID, scopeID int64) ([]models.StatusEntry, error) {
	grants, err := s.ledger.ListBySubject(ctx, subjectID, scopeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]models.StatusEntry, 0, len(grants))
	for _, g := range grants {
		entries = append(entries, models.StatusEntry{
			AttributeID:    g.AttributeID,
			Remaining:      g.Remaining(now),
			PendingCleanup: g.State(now) == models.StateExpiredPending,
			ExpiresAt:      g.ExpiresAt,
		})
	}
	return entries, nil
}

func (s *Service) applyRole(ctx context.Context, subjectID, scopeID, roleID int64, reason string) models.AttributeOutcome {
	outcome := models.AttributeOutcome{AttributeID: roleID}
	err := s.client.AddRole(ctx, scopeID, subjectID, roleID, reason)
	if err != nil {
		outcome.Retryable = discord.Retryable(err)
		outcome.Reason = err.Error()
		if s.metrics != nil {
			s.metrics.RecordRoleApplied("failure")
		}
		s.logger.Warn("role application failed",
			"subject_id", subjectID,
			"scope_id", scopeID,
			"attribute_id", roleID,
			"retryable", outcome.Retryable,
			"error", err,
		)
		return outcome
	}
	outcome.Applied = true
	if s.metrics != nil {
		s.metrics.RecordRoleApplied("success")
	}
	return outcome
}

// removeExistingManaged strips previously assigned managed roles before a
// new set goes on, so a member never holds two options from the same
// category. Removals are best effort: a failure is logged and the grant
// proceeds.
func (s *Service) removeExistingManaged(ctx context.Context, subjectID, scopeID int64, incoming []int64) {
	keep := make(map[int64]bool, len(incoming))
	for _, id := range incoming {
		keep[id] = true
	}
	for _, roleID := range s.managedRoles {
		if keep[roleID] {
			continue
		}
		err := s.client.RemoveRole(ctx, scopeID, subjectID, roleID, "replacing previous stage roles")
		if !discord.Revoked(err) {
			s.logger.Warn("failed to remove previous managed role",
				"subject_id", subjectID,
				"scope_id", scopeID,
				"attribute_id", roleID,
				"error", err,
			)
		}
	}
}
