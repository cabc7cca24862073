// Package discord is a thin adapter over the Discord REST API for adding and
// removing guild member roles. It paces all outbound calls process-wide and
// classifies responses into the error taxonomy the grant layers act on.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"rolekeeper/pkg/platform/sentinel"
)

const defaultBaseURL = "https://discord.com/api/v10"

// DefaultMinCallInterval spaces consecutive role calls far enough apart to
// stay under Discord's per-route rate limit. Grant application and sweep
// revocation share the same quota, so the limiter is shared too.
const DefaultMinCallInterval = 500 * time.Millisecond

// Doer issues HTTP requests. Satisfied by *http.Client; swapped for a stub
// in tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Discord role endpoints with bot-token auth.
type Client struct {
	baseURL string
	token   string
	http    Doer
	limiter *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

func WithMinCallInterval(d time.Duration) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New builds a role client. The default transport carries a 15s timeout so a
// hung call cannot stall a sweep cycle indefinitely.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(DefaultMinCallInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddRole grants a role to a guild member. Re-adding a role the member
// already holds succeeds on Discord's side, so the call is idempotent.
func (c *Client) AddRole(ctx context.Context, guildID, userID, roleID int64, reason string) error {
	return c.roleCall(ctx, http.MethodPut, guildID, userID, roleID, reason)
}

// RemoveRole revokes a role from a guild member. A missing role or member is
// reported as sentinel.ErrAlreadyApplied so revocation stays idempotent.
func (c *Client) RemoveRole(ctx context.Context, guildID, userID, roleID int64, reason string) error {
	err := c.roleCall(ctx, http.MethodDelete, guildID, userID, roleID, reason)
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("%w: role or member already gone", sentinel.ErrAlreadyApplied)
	}
	return err
}

func (c *Client) roleCall(ctx context.Context, method string, guildID, userID, roleID int64, reason string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for call slot: %w", err)
	}

	url := fmt.Sprintf("%s/guilds/%d/members/%d/roles/%d", c.baseURL, guildID, userID, roleID)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("build role request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", reason)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return classifyStatus(resp.StatusCode)
}

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: discord returned 429", sentinel.ErrRateLimited)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: bot lacks permission for this role", sentinel.ErrForbidden)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: unknown guild, member, or role", sentinel.ErrNotFound)
	case status >= 500:
		return fmt.Errorf("%w: discord returned %d", sentinel.ErrUnavailable, status)
	default:
		return fmt.Errorf("discord returned unexpected status %d", status)
	}
}

// Retryable reports whether an error is transient: the caller may retry on
// the next cycle, but never automatically within the same request.
func Retryable(err error) bool {
	return errors.Is(err, sentinel.ErrRateLimited) || errors.Is(err, sentinel.ErrUnavailable)
}

// Revoked reports whether a removal can be treated as done: either it
// succeeded or the role was already absent on the remote side.
func Revoked(err error) bool {
	return err == nil || errors.Is(err, sentinel.ErrAlreadyApplied)
}
