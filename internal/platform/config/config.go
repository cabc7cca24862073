package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the service consumes from the environment: the
// remote credential, database connection string, role-id mapping, sweep
// cadence, and the default grant TTL.
type Config struct {
	Addr            string
	DatabaseURL     string
	BotToken        string
	SweepInterval   time.Duration
	GrantTTL        time.Duration
	MinCallInterval time.Duration

	// TemporaryRoleID is the one role granted with an expiry.
	TemporaryRoleID int64
	// RequiredRoleID gates who may invoke a grant; enforced by the command
	// front end, loaded here so all role ids live in one place.
	RequiredRoleID int64
	// ManagedRoleIDs is the full set of permanent roles this service hands
	// out; granting replaces previously held roles from this set.
	ManagedRoleIDs []int64
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("ROLEKEEPER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Config{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		BotToken:        os.Getenv("DISCORD_TOKEN"),
		SweepInterval:   durationEnv("SWEEP_INTERVAL", 5*time.Minute),
		GrantTTL:        durationEnv("GRANT_TTL", 48*time.Hour),
		MinCallInterval: durationEnv("MIN_CALL_INTERVAL", 500*time.Millisecond),
		TemporaryRoleID: int64Env("TEMPORARY_ROLE_ID"),
		RequiredRoleID:  int64Env("REQUIRED_ROLE_ID"),
		ManagedRoleIDs:  int64ListEnv("MANAGED_ROLE_IDS"),
	}
}

// Validate returns every configuration problem rather than stopping at the
// first, so an operator can fix a deployment in one pass.
func (c Config) Validate() []string {
	var errs []string
	if c.BotToken == "" {
		errs = append(errs, "DISCORD_TOKEN is required")
	}
	if c.TemporaryRoleID == 0 {
		errs = append(errs, "TEMPORARY_ROLE_ID is required")
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Sprintf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval))
	}
	if c.GrantTTL <= 0 {
		errs = append(errs, fmt.Sprintf("GRANT_TTL must be positive, got %s", c.GrantTTL))
	}
	return errs
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func int64Env(key string) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func int64ListEnv(key string) []int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, v)
	}
	return ids
}
