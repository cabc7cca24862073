// Package sweeper runs the periodic expiry sweep: find grants past expiry,
// revoke each on the remote platform, and delete the row only once the
// revocation is confirmed or the role is confirmed absent.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rolekeeper/internal/discord"
	"rolekeeper/internal/grants/ledger"
	"rolekeeper/internal/grants/metrics"
	"rolekeeper/internal/grants/models"
)

// DefaultInterval is the reference sweep cadence. There is no backoff; the
// fixed interval is the retry schedule for failed revocations.
const DefaultInterval = 5 * time.Minute

// Revoker removes a role from a guild member.
type Revoker interface {
	RemoveRole(ctx context.Context, guildID, userID, roleID int64, reason string) error
}

// Result summarizes one sweep cycle. Revoked rows were removed remotely and
// deleted; Skipped rows were already absent remotely and deleted; Failed
// rows stay in the ledger for the next cycle.
type Result struct {
	Revoked int `json:"revoked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sweeper owns the cron schedule and the sweep cycle itself. Cycles can also
// be triggered synchronously via Sweep, which the cleanup endpoint uses.
type Sweeper struct {
	ledger   *ledger.Ledger
	client   Revoker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	interval time.Duration
	cron     *cron.Cron
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		s.interval = d
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(l *ledger.Ledger, client Revoker, opts ...Option) *Sweeper {
	s := &Sweeper{
		ledger:   l,
		client:   client,
		logger:   slog.Default(),
		now:      time.Now,
		interval: DefaultInterval,
		cron:     cron.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one sweep immediately, then schedules the periodic cycle.
func (s *Sweeper) Start(ctx context.Context) error {
	s.Sweep(ctx)

	_, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("expiry sweeper started", "interval", s.interval)
	return nil
}

// Stop halts the schedule and waits for an in-flight cycle to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("expiry sweeper stopped")
}

// Sweep runs one cycle. Revocations run sequentially so the remote client's
// pacing bounds outbound traffic, and a single grant's failure never aborts
// the rest of the cycle.
func (s *Sweeper) Sweep(ctx context.Context) Result {
	var result Result
	now := s.now()

	expired, err := s.ledger.ListExpired(ctx, now)
	if err != nil {
		s.logger.Error("sweep could not list expired grants", "error", err)
		return result
	}

	for _, g := range expired {
		// A shutdown signal stops between items; the in-flight revoke
		// always completes.
		if ctx.Err() != nil {
			break
		}

		err := s.client.RemoveRole(ctx, g.ScopeID, g.SubjectID, g.AttributeID, "temporary role expired")
		switch {
		case err == nil:
			s.deleteSwept(ctx, g.Key())
			result.Revoked++
			if s.metrics != nil {
				s.metrics.RecordRevocation("revoked")
			}
		case discord.Revoked(err):
			s.deleteSwept(ctx, g.Key())
			result.Skipped++
			if s.metrics != nil {
				s.metrics.RecordRevocation("already_absent")
			}
		default:
			result.Failed++
			if s.metrics != nil {
				s.metrics.RecordRevocation("failure")
			}
			s.logger.Warn("revocation failed, will retry next cycle",
				"subject_id", g.SubjectID,
				"scope_id", g.ScopeID,
				"attribute_id", g.AttributeID,
				"error", err,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.SweepCyclesTotal.Inc()
		s.metrics.PendingGrants.Set(float64(result.Failed))
	}
	if result.Revoked+result.Skipped+result.Failed > 0 {
		s.logger.Info("sweep cycle completed",
			"revoked", result.Revoked,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	return result
}

func (s *Sweeper) deleteSwept(ctx context.Context, key models.Key) {
	if _, err := s.ledger.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete swept grant",
			"subject_id", key.SubjectID,
			"scope_id", key.ScopeID,
			"attribute_id", key.AttributeID,
			"error", err,
		)
	}
}
