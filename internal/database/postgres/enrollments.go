package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/pgvector/pgvector-go"
)

// EnrollmentRepository provides PostgreSQL-backed enrollment storage
type EnrollmentRepository struct {
	pool *Pool
}

// NewEnrollmentRepository creates a new PostgreSQL enrollment repository
func NewEnrollmentRepository(pool *Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

const enrollmentColumns = `identity_key, embedding, photo_path, created_at, updated_at`

// Upsert inserts an enrollment or replaces the embedding and photo of an existing one
func (r *EnrollmentRepository) Upsert(ctx context.Context, rec database.EnrollmentRecord) error {
	query := `
		INSERT INTO enrollments (identity_key, embedding, photo_path, created_at, updated_at)
		VALUES ($1, $2::vector, $3, NOW(), NOW())
		ON CONFLICT (identity_key) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			photo_path = EXCLUDED.photo_path,
			updated_at = NOW()
	`

	vec := pgvector.NewVector(rec.Embedding)
	if _, err := r.pool.Exec(ctx, query, rec.IdentityKey, vec, rec.PhotoPath); err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}
	return nil
}

// Get retrieves an enrollment by identity key, returns nil if not found
func (r *EnrollmentRepository) Get(ctx context.Context, identityKey string) (*database.EnrollmentRecord, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE identity_key = $1`

	rec, err := scanEnrollment(r.pool.QueryRow(ctx, query, identityKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &rec, nil
}

// Has checks if an enrollment exists for the identity key
func (r *EnrollmentRepository) Has(ctx context.Context, identityKey string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE identity_key = $1)`, identityKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// List returns all enrollments ordered by identity key
func (r *EnrollmentRepository) List(ctx context.Context) ([]database.EnrollmentRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+enrollmentColumns+` FROM enrollments ORDER BY identity_key`)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []database.EnrollmentRecord
	for rows.Next() {
		rec, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}

// Count returns the number of enrollments
func (r *EnrollmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Delete removes an enrollment, returns false if it did not exist
func (r *EnrollmentRepository) Delete(ctx context.Context, identityKey string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE identity_key = $1`, identityKey)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n > 0, nil
}

// scanEnrollment scans a row produced by a SELECT of enrollmentColumns
func scanEnrollment(scanner interface{ Scan(...any) error }) (database.EnrollmentRecord, error) {
	var rec database.EnrollmentRecord
	var vec pgvector.Vector

	err := scanner.Scan(&rec.IdentityKey, &vec, &rec.PhotoPath, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan enrollment: %w", err)
	}

	rec.Embedding = vec.Slice()
	return rec, nil
}
