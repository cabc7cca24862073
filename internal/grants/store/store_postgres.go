package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rolekeeper/internal/grants/models"
)

// PostgresStore persists grants in PostgreSQL. Each upsert and delete is a
// single statement, so concurrent sweeps never observe a half-written row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed grant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, grant *models.Grant) error {
	query := `
		INSERT INTO temporary_grants (subject_id, scope_id, attribute_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_id, scope_id, attribute_id) DO UPDATE SET
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`
	_, err := s.db.ExecContext(ctx, query,
		grant.SubjectID,
		grant.ScopeID,
		grant.AttributeID,
		grant.ExpiresAt,
		grant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Grant, error) {
	query := `
		SELECT subject_id, scope_id, attribute_id, expires_at, created_at
		FROM temporary_grants
		WHERE expires_at <= $1
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired grants: %w", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

// ListBySubject returns every tracked grant for a member, including rows
// already past expiry but not yet swept. Status display renders those as
// pending cleanup.
func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID, scopeID int64) ([]*models.Grant, error) {
	query := `
		SELECT subject_id, scope_id, attribute_id, expires_at, created_at
		FROM temporary_grants
		WHERE subject_id = $1 AND scope_id = $2
		ORDER BY expires_at
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list grants by subject: %w", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, key models.Key) (bool, error) {
	query := `
		DELETE FROM temporary_grants
		WHERE subject_id = $1 AND scope_id = $2 AND attribute_id = $3
	`
	result, err := s.db.ExecContext(ctx, query, key.SubjectID, key.ScopeID, key.AttributeID)
	if err != nil {
		return false, fmt.Errorf("delete grant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete grant rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanGrants(rows *sql.Rows) ([]*models.Grant, error) {
	var grants []*models.Grant
	for rows.Next() {
		var g models.Grant
		if err := rows.Scan(&g.SubjectID, &g.ScopeID, &g.AttributeID, &g.ExpiresAt, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return grants, nil
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*InMemoryStore)(nil)
