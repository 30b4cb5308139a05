// Package model defines shared data structures for the listing service.
package model

import (
	"encoding/json"
	"time"
)

// VerificationStatus mirrors the verification_status enum in PostgreSQL.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusVerified   VerificationStatus = "verified"
	StatusRejected   VerificationStatus = "rejected"
	StatusExpired    VerificationStatus = "expired"
)

// SourceType tags where a listing originated.
type SourceType string

const (
	SourceManualEntry SourceType = "manual_entry"
	SourcePublicAPI   SourceType = "public_api"
	SourceGovPortal   SourceType = "gov_portal"
	SourceAPI         SourceType = "api"
)

// Listing is a canonical internship posting as stored in the listings table.
type Listing struct {
	ID            int64              `json:"id"`
	Company       string             `json:"company"`
	Role          string             `json:"role"`
	Location      string             `json:"location"`
	Sector        string             `json:"sector"`
	Duration      string             `json:"duration"`
	Stipend       int                `json:"stipend"`
	Requirements  string             `json:"requirements"`
	Skills        string             `json:"skills"` // comma-joined token list
	Description   string             `json:"description"`
	Deadline      *time.Time         `json:"deadline"`
	Status        VerificationStatus `json:"verificationStatus"`
	SourceType    SourceType         `json:"sourceType"`
	SourceName    string             `json:"sourceName"` // empty for manual entries
	SourceID      string             `json:"sourceId"`   // unique within SourceName
	ExternalLink  string             `json:"externalLink"`
	RawData       json.RawMessage    `json:"rawData,omitempty"`
	LastFetchedAt time.Time          `json:"lastFetchedAt"`
	DeletedAt     *time.Time         `json:"deletedAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ListingDraft is the normalised output of a source mapping, ready for
// reconciliation. It carries everything an insert needs; updates reuse the
// content fields and leave verification state alone.
type ListingDraft struct {
	SourceName    string
	SourceID      string
	SourceType    SourceType
	Company       string
	Role          string
	Location      string
	Sector        string
	Duration      string
	Stipend       int
	Skills        string
	Description   string
	Deadline      *time.Time
	ExternalLink  string
	RawData       json.RawMessage
	LastFetchedAt time.Time
}

// StudentProfile is the ranking input. It is supplied per match request and
// never persisted by this service.
type StudentProfile struct {
	Skills             []string `json:"skills"`
	ResumeSkills       []string `json:"resumeSkills"`
	Qualification      string   `json:"qualification"`
	PreferredLocations string   `json:"preferredLocations"` // comma-separated, may be "Any"
	CGPA               float64  `json:"cgpa"`
}

// ScoreBreakdown holds the per-factor scores behind a final match score.
type ScoreBreakdown struct {
	ResumeSkillScore  int `json:"resumeSkillScore"`
	ProfileSkillScore int `json:"profileSkillScore"`
	EducationScore    int `json:"educationScore"`
	LocationScore     int `json:"locationScore"`
}

// MatchResult decorates a Listing with its computed ranking metadata.
type MatchResult struct {
	Listing           Listing        `json:"listing"`
	FinalScore        int            `json:"finalScore"` // 0-100
	LocationTier      int            `json:"locationTier"`
	LocationLabel     string         `json:"locationLabel"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	TotalSkillMatches int            `json:"totalSkillMatches"`
	MatchLabel        string         `json:"matchLabel"`
	MissingSkills     []string       `json:"missingSkills"`
	ImprovementTips   []string       `json:"improvementTips"`
}

// AuditAction tags an audit log entry.
type AuditAction string

const (
	ActionVerify     AuditAction = "VERIFY"
	ActionReject     AuditAction = "REJECT"
	ActionBulkVerify AuditAction = "BULK_VERIFY"
	ActionBulkReject AuditAction = "BULK_REJECT"
	ActionSync       AuditAction = "SYNC"
)

// AuditLogEntry is an append-only record of an admin action or sync run.
type AuditLogEntry struct {
	ID         int64           `json:"id"`
	AdminID    string          `json:"adminId"` // empty for system actions
	Action     AuditAction     `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// SyncStats aggregates the outcome of one ingestion run.
type SyncStats struct {
	RunID    string    `json:"runId"`
	Inserted int       `json:"inserted"`
	Updated  int       `json:"updated"`
	Failed   int       `json:"failed"`
	Deleted  int64     `json:"deleted"`
	Expired  int64     `json:"expired"` // deadline sweep
	Sources  int       `json:"sources"`
	Errors   int       `json:"errors"` // whole-source fetch failures
	RanAt    time.Time `json:"ranAt"`
}

// Merge folds one source's reconciliation counters into the run totals.
func (s *SyncStats) Merge(inserted, updated, failed int, deleted int64) {
	s.Inserted += inserted
	s.Updated += updated
	s.Failed += failed
	s.Deleted += deleted
}
