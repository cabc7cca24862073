package discord

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolekeeper/pkg/platform/sentinel"
)

// stubDoer answers every request with a fixed status and records what it saw.
type stubDoer struct {
	status   int
	requests []*http.Request
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)
	return &http.Response{StatusCode: d.status, Body: http.NoBody}, nil
}

func newTestClient(status int) (*Client, *stubDoer) {
	doer := &stubDoer{status: status}
	c := New("test-token",
		WithHTTPClient(doer),
		WithMinCallInterval(time.Millisecond),
	)
	return c, doer
}

func TestAddRoleRequestShape(t *testing.T) {
	c, doer := newTestClient(http.StatusNoContent)

	err := c.AddRole(context.Background(), 7, 42, 100, "granted via stage assignment")
	require.NoError(t, err)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/guilds/7/members/42/roles/100", req.URL.Path)
	assert.Equal(t, "Bot test-token", req.Header.Get("Authorization"))
	assert.Equal(t, "granted via stage assignment", req.Header.Get("X-Audit-Log-Reason"))
}

func TestResponseClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		retryable bool
	}{
		{name: "success", status: http.StatusNoContent},
		{name: "rate limited is transient", status: http.StatusTooManyRequests, wantErr: sentinel.ErrRateLimited, retryable: true},
		{name: "server error is transient", status: http.StatusBadGateway, wantErr: sentinel.ErrUnavailable, retryable: true},
		{name: "forbidden is permanent", status: http.StatusForbidden, wantErr: sentinel.ErrForbidden},
		{name: "unknown target is permanent", status: http.StatusNotFound, wantErr: sentinel.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(tt.status)
			err := c.AddRole(context.Background(), 7, 42, 100, "")
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.retryable, Retryable(err))
		})
	}
}

// TestRemoveRoleIdempotent verifies removing an already-absent role counts
// as a confirmed revocation, not a failure.
func TestRemoveRoleIdempotent(t *testing.T) {
	c, doer := newTestClient(http.StatusNotFound)

	err := c.RemoveRole(context.Background(), 7, 42, 100, "temporary role expired")
	require.ErrorIs(t, err, sentinel.ErrAlreadyApplied)
	assert.True(t, Revoked(err))
	assert.Equal(t, http.MethodDelete, doer.requests[0].Method)
}

// TestCallPacing verifies consecutive calls are spaced by at least the
// configured minimum interval end-to-end.
func TestCallPacing(t *testing.T) {
	doer := &stubDoer{status: http.StatusNoContent}
	const interval = 25 * time.Millisecond
	c := New("test-token",
		WithHTTPClient(doer),
		WithMinCallInterval(interval),
	)

	const calls = 4
	start := time.Now()
	for i := 0; i < calls; i++ {
		require.NoError(t, c.AddRole(context.Background(), 7, 42, 100, ""))
	}
	elapsed := time.Since(start)

	// The first call may fire immediately; the remaining three each wait.
	assert.GreaterOrEqual(t, elapsed, (calls-1)*interval)
}

func TestCancelledContextAbortsWait(t *testing.T) {
	c, _ := newTestClient(http.StatusNoContent)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.AddRole(ctx, 7, 42, 100, "")
	require.Error(t, err)
}
