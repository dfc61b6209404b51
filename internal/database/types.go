package database

import (
	"time"
)

// EnrollmentRecord is the stored face template of one identity
type EnrollmentRecord struct {
	IdentityKey string
	Embedding   []float32
	PhotoPath   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AuditStatus classifies a recognition attempt in the audit log
type AuditStatus string

const (
	AuditSuccess       AuditStatus = "success"
	AuditLowConfidence AuditStatus = "low_confidence"
	AuditAmbiguous     AuditStatus = "ambiguous"
	AuditNoMatch       AuditStatus = "no_match"
	AuditStable        AuditStatus = "stable"
)

// AuditEntry is one row of the append-only recognition log
type AuditEntry struct {
	ID          int64
	IdentityKey string // empty when nothing matched
	Confidence  float64
	Status      AuditStatus
	SessionID   string
	CreatedAt   time.Time
}

// Stats summarizes the store contents
type Stats struct {
	TotalEnrollments int `json:"total_enrollments"`
	TotalLogs        int `json:"total_logs"`
	RecentLogs24h    int `json:"recent_logs_24h"`
}
