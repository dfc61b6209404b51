package database

import (
	"context"
)

// EnrollmentReader provides read-only access to enrolled identities
type EnrollmentReader interface {
	// Get retrieves an enrollment by identity key, returns nil if not found
	Get(ctx context.Context, identityKey string) (*EnrollmentRecord, error)
	// Has checks if an enrollment exists for the identity key
	Has(ctx context.Context, identityKey string) (bool, error)
	// List returns every enrollment in a stable order (by identity key)
	List(ctx context.Context) ([]EnrollmentRecord, error)
	// Count returns the number of enrollments
	Count(ctx context.Context) (int, error)
}

// EnrollmentWriter provides write access to enrollments
type EnrollmentWriter interface {
	EnrollmentReader

	// Upsert inserts or replaces the enrollment for rec.IdentityKey
	Upsert(ctx context.Context, rec EnrollmentRecord) error
	// Delete removes an enrollment, returns false if it did not exist
	Delete(ctx context.Context, identityKey string) (bool, error)
}

// AuditWriter appends recognition outcomes to the audit log
type AuditWriter interface {
	// Log stores an audit entry; ID and CreatedAt are assigned by the store when empty
	Log(ctx context.Context, entry AuditEntry) error
}

// StatsReader reports store-wide counters
type StatsReader interface {
	Stats(ctx context.Context) (Stats, error)
}
