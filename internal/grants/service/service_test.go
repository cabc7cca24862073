package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rolekeeper/internal/grants/ledger"
	"rolekeeper/internal/grants/mocks"
	"rolekeeper/internal/grants/store"
	"rolekeeper/pkg/platform/sentinel"
)

const (
	subjectID = int64(42)
	scopeID   = int64(7)
	roleA     = int64(100)
	roleB     = int64(101)
	roleTemp  = int64(200)
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	client  *mocks.MockRoleClient
	primary *store.InMemoryStore
	ledger  *ledger.Ledger
	svc     *Service
	ctx     context.Context
	now     time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockRoleClient(s.ctrl)
	s.primary = store.NewInMemory()
	s.ledger = ledger.New(s.primary)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := New(s.ledger, s.client, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.svc = svc
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) expectAdd(roleID int64, err error) {
	s.client.EXPECT().
		AddRole(gomock.Any(), scopeID, subjectID, roleID, gomock.Any()).
		Return(err)
}

// TestGrantRecordsTemporaryRow walks the reference scenario: two permanent
// roles plus the temporary role at T0 with a 48h TTL leaves exactly one
// ledger row expiring at T0+48h, and a status query at T0+1h reports 47h
// remaining.
func (s *ServiceSuite) TestGrantRecordsTemporaryRow() {
	s.expectAdd(roleA, nil)
	s.expectAdd(roleB, nil)
	s.expectAdd(roleTemp, nil)

	result, err := s.svc.Grant(s.ctx, subjectID, scopeID, []int64{roleA, roleB}, roleTemp, 48*time.Hour)
	s.Require().NoError(err)

	s.Require().Len(result.Permanent, 2)
	s.True(result.Permanent[0].Applied)
	s.True(result.Permanent[1].Applied)
	s.True(result.Temporary.Applied)
	s.Equal(s.now.Add(48*time.Hour), result.ExpiresAt)

	s.Equal(1, s.primary.Len())

	s.now = s.now.Add(time.Hour)
	entries, err := s.svc.Status(s.ctx, subjectID, scopeID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(roleTemp, entries[0].AttributeID)
	s.Equal(47*time.Hour, entries[0].Remaining)
	s.False(entries[0].PendingCleanup)
}

// TestRegrantUpsertsExpiry verifies granting the same triple twice updates
// the expiry in place rather than adding a second row.
func (s *ServiceSuite) TestRegrantUpsertsExpiry() {
	s.expectAdd(roleTemp, nil)
	_, err := s.svc.Grant(s.ctx, subjectID, scopeID, nil, roleTemp, 24*time.Hour)
	s.Require().NoError(err)

	s.now = s.now.Add(time.Hour)
	s.expectAdd(roleTemp, nil)
	_, err = s.svc.Grant(s.ctx, subjectID, scopeID, nil, roleTemp, 24*time.Hour)
	s.Require().NoError(err)

	s.Equal(1, s.primary.Len())

	entries, err := s.svc.Status(s.ctx, subjectID, scopeID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(s.now.Add(24*time.Hour), entries[0].ExpiresAt)
}

// TestPermanentFailureDoesNotBlockTemporary verifies each permanent role is
// independent and a failure never rolls back or blocks the temporary grant.
func (s *ServiceSuite) TestPermanentFailureDoesNotBlockTemporary() {
	s.expectAdd(roleA, fmt.Errorf("%w: bot lacks permission", sentinel.ErrForbidden))
	s.expectAdd(roleB, nil)
	s.expectAdd(roleTemp, nil)

	result, err := s.svc.Grant(s.ctx, subjectID, scopeID, []int64{roleA, roleB}, roleTemp, 48*time.Hour)
	s.Require().NoError(err)

	s.False(result.Permanent[0].Applied)
	s.False(result.Permanent[0].Retryable)
	s.True(result.Permanent[1].Applied)
	s.True(result.Temporary.Applied)
	s.Equal(1, s.primary.Len())
}

// TestTemporaryFailureWritesNoRow verifies the ledger invariant: no row
// unless the remote add succeeded.
func (s *ServiceSuite) TestTemporaryFailureWritesNoRow() {
	s.expectAdd(roleA, nil)
	s.expectAdd(roleTemp, fmt.Errorf("%w: discord returned 429", sentinel.ErrRateLimited))

	result, err := s.svc.Grant(s.ctx, subjectID, scopeID, []int64{roleA}, roleTemp, 48*time.Hour)
	s.Require().NoError(err)

	s.False(result.Temporary.Applied)
	s.True(result.Temporary.Retryable)
	s.True(result.AnyApplied())
	s.Zero(s.primary.Len())
}

func (s *ServiceSuite) TestStatusPendingCleanup() {
	s.expectAdd(roleTemp, nil)
	_, err := s.svc.Grant(s.ctx, subjectID, scopeID, nil, roleTemp, time.Hour)
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Hour)
	entries, err := s.svc.Status(s.ctx, subjectID, scopeID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.True(entries[0].PendingCleanup)
	s.Zero(entries[0].Remaining)
}

func (s *ServiceSuite) TestStatusUnknownSubjectIsEmpty() {
	entries, err := s.svc.Status(s.ctx, 999, scopeID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ServiceSuite) TestGrantRejectsNonPositiveTTL() {
	_, err := s.svc.Grant(s.ctx, subjectID, scopeID, nil, roleTemp, 0)
	s.Require().Error(err)
}

// TestManagedRoleReplacement verifies previously held managed roles are
// stripped before the new set goes on, and removal failures stay non-fatal.
func (s *ServiceSuite) TestManagedRoleReplacement() {
	svc, err := New(s.ledger, s.client,
		WithClock(func() time.Time { return s.now }),
		WithManagedRoles([]int64{roleA, roleB}),
	)
	s.Require().NoError(err)

	// roleA is being regranted so only roleB is stripped.
	s.client.EXPECT().
		RemoveRole(gomock.Any(), scopeID, subjectID, roleB, gomock.Any()).
		Return(fmt.Errorf("%w: discord returned 503", sentinel.ErrUnavailable))
	s.expectAdd(roleA, nil)
	s.expectAdd(roleTemp, nil)

	result, err := svc.Grant(s.ctx, subjectID, scopeID, []int64{roleA}, roleTemp, 48*time.Hour)
	s.Require().NoError(err)
	s.True(result.Temporary.Applied)
}

// TestGrantDuringStoreOutage verifies the fallback-continuity property at
// the service level: grants and status keep working when the durable store
// fails mid-run.
func (s *ServiceSuite) TestGrantDuringStoreOutage() {
	l := ledger.New(nil)
	svc, err := New(l, s.client, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	s.expectAdd(roleTemp, nil)
	result, err := svc.Grant(s.ctx, subjectID, scopeID, nil, roleTemp, 48*time.Hour)
	s.Require().NoError(err)
	s.True(result.Temporary.Applied)

	entries, err := svc.Status(s.ctx, subjectID, scopeID)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Positive(l.Degradations())
}
