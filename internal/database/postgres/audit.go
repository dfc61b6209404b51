package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-verify/internal/database"
)

// AuditRepository stores the append-only recognition log
type AuditRepository struct {
	pool *Pool
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(pool *Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Log appends a recognition outcome
func (r *AuditRepository) Log(ctx context.Context, entry database.AuditEntry) error {
	query := `
		INSERT INTO recognition_logs (identity_key, confidence, status, session_id, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	`

	var identityKey sql.NullString
	if entry.IdentityKey != "" {
		identityKey = sql.NullString{String: entry.IdentityKey, Valid: true}
	}
	var createdAt sql.NullTime
	if !entry.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: entry.CreatedAt, Valid: true}
	}

	_, err := r.pool.Exec(ctx, query, identityKey, entry.Confidence, string(entry.Status), entry.SessionID, createdAt)
	if err != nil {
		return fmt.Errorf("log recognition: %w", err)
	}
	return nil
}

// Recent returns the latest audit entries, newest first
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]database.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, identity_key, confidence, status, session_id, created_at
		FROM recognition_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recognition logs: %w", err)
	}
	defer rows.Close()

	var out []database.AuditEntry
	for rows.Next() {
		var e database.AuditEntry
		var identityKey sql.NullString
		var status string
		if err := rows.Scan(&e.ID, &identityKey, &e.Confidence, &status, &e.SessionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recognition log: %w", err)
		}
		e.IdentityKey = identityKey.String
		e.Status = database.AuditStatus(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognition logs: %w", err)
	}
	return out, nil
}

// Stats returns enrollment and audit counters
func (r *AuditRepository) Stats(ctx context.Context) (database.Stats, error) {
	var s database.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM enrollments),
			(SELECT COUNT(*) FROM recognition_logs),
			(SELECT COUNT(*) FROM recognition_logs WHERE created_at > NOW() - INTERVAL '24 hours')
	`).Scan(&s.TotalEnrollments, &s.TotalLogs, &s.RecentLogs24h)
	if err != nil {
		return s, fmt.Errorf("get stats: %w", err)
	}
	return s, nil
}
