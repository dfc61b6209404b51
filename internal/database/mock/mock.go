// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
)

// MockEnrollmentStore is a mock implementation of database.EnrollmentWriter
type MockEnrollmentStore struct {
	mu          sync.RWMutex
	enrollments map[string]*database.EnrollmentRecord
	listCalls   int

	// Error injection
	GetError    error
	ListError   error
	CountError  error
	UpsertError error
	DeleteError error
}

// NewMockEnrollmentStore creates a new mock enrollment store
func NewMockEnrollmentStore() *MockEnrollmentStore {
	return &MockEnrollmentStore{
		enrollments: make(map[string]*database.EnrollmentRecord),
	}
}

// AddEnrollment adds an enrollment to the mock store
func (m *MockEnrollmentStore) AddEnrollment(rec database.EnrollmentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[rec.IdentityKey] = &rec
}

// ListCalls returns how many times List was called
func (m *MockEnrollmentStore) ListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCalls
}

// Get retrieves an enrollment by identity key
func (m *MockEnrollmentStore) Get(ctx context.Context, identityKey string) (*database.EnrollmentRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.enrollments[identityKey]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// Has checks if an enrollment exists
func (m *MockEnrollmentStore) Has(ctx context.Context, identityKey string) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.enrollments[identityKey]
	return ok, nil
}

// List returns all enrollments ordered by identity key
func (m *MockEnrollmentStore) List(ctx context.Context) ([]database.EnrollmentRecord, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]database.EnrollmentRecord, 0, len(m.enrollments))
	for _, rec := range m.enrollments {
		out = append(out, *rec)
	}
	slices.SortFunc(out, func(a, b database.EnrollmentRecord) int {
		return strings.Compare(a.IdentityKey, b.IdentityKey)
	})
	return out, nil
}

// Count returns the number of enrollments
func (m *MockEnrollmentStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.enrollments), nil
}

// Upsert inserts or replaces an enrollment
func (m *MockEnrollmentStore) Upsert(ctx context.Context, rec database.EnrollmentRecord) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.enrollments[rec.IdentityKey]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.enrollments[rec.IdentityKey] = &rec
	return nil
}

// Delete removes an enrollment
func (m *MockEnrollmentStore) Delete(ctx context.Context, identityKey string) (bool, error) {
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enrollments[identityKey]; !ok {
		return false, nil
	}
	delete(m.enrollments, identityKey)
	return true, nil
}

// MockAuditLog is a mock implementation of database.AuditWriter and database.StatsReader
type MockAuditLog struct {
	mu      sync.RWMutex
	entries []database.AuditEntry
	store   *MockEnrollmentStore

	// Error injection
	LogError   error
	StatsError error
}

// NewMockAuditLog creates a new mock audit log; store is used for enrollment counts and may be nil
func NewMockAuditLog(store *MockEnrollmentStore) *MockAuditLog {
	return &MockAuditLog{store: store}
}

// Log appends an entry
func (m *MockAuditLog) Log(ctx context.Context, entry database.AuditEntry) error {
	if m.LogError != nil {
		return m.LogError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of all logged entries
func (m *MockAuditLog) Entries() []database.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries)
}

// Stats returns counters over the mock data
func (m *MockAuditLog) Stats(ctx context.Context) (database.Stats, error) {
	if m.StatsError != nil {
		return database.Stats{}, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := database.Stats{TotalLogs: len(m.entries)}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, e := range m.entries {
		if e.CreatedAt.After(cutoff) {
			stats.RecentLogs24h++
		}
	}
	if m.store != nil {
		n, err := m.store.Count(ctx)
		if err != nil {
			return database.Stats{}, err
		}
		stats.TotalEnrollments = n
	}
	return stats, nil
}
