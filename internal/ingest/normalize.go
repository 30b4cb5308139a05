// Package ingest implements the normalisation and reconciliation core.
//
// Each upstream source has one typed wire struct and one pure mapping
// function. Mapping never fails: every field has a source-specific default,
// because upstream payloads are known to be partial.
package ingest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"internmatch/listing-service/internal/model"
)

// Canonical source names used as the source_name tag on listings.
const (
	SourceGovPortal   = "GOV_PORTAL"
	SourcePartnerAPI  = "PARTNER_API"
	SourceTalentBoard = "TALENT_BOARD"
)

// GovRecord mirrors one listing from the government portal API.
type GovRecord struct {
	JobID          string   `json:"job_id"`
	JobTitle       string   `json:"job_title"`
	MinistryName   string   `json:"ministry_name"`
	Department     string   `json:"department"`
	Sector         string   `json:"sector"`
	Location       string   `json:"location"`
	StipendAmount  string   `json:"stipend_amount"`
	ClosingDate    string   `json:"closing_date"`
	DurationMonths int      `json:"duration_months"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"required_skills"`
	ApplyURL       string   `json:"apply_url"`
}

// PartnerRecord mirrors one listing from the corporate partner network API.
type PartnerRecord struct {
	PartnerID     string   `json:"partner_id"`
	Title         string   `json:"title"`
	CompanyName   string   `json:"company_name"`
	Industry      string   `json:"industry"`
	City          string   `json:"city"`
	StipendINR    string   `json:"stipend_inr"`
	ValidUntil    string   `json:"valid_until"`
	DurationWeeks int      `json:"duration_weeks"`
	Description   string   `json:"description"`
	Skills        []string `json:"skills"`
	Link          string   `json:"link"`
}

// TalentRecord is one card scraped from the talent board HTML.
type TalentRecord struct {
	RefID       string `json:"ref_id"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	Location    string `json:"location"`
	Sector      string `json:"sector"`
	Stipend     string `json:"stipend"`
	Deadline    string `json:"deadline"`
	Duration    string `json:"duration"`
	Skills      string `json:"skills"` // already comma-joined on the board
	Description string `json:"description"`
	Link        string `json:"link"`
}

// NormalizeGov maps a government portal record to a canonical draft.
func NormalizeGov(rec GovRecord, now time.Time) model.ListingDraft {
	company := firstNonEmpty(rec.MinistryName, rec.Department, "Govt of India")
	role := firstNonEmpty(rec.JobTitle, "Intern")
	location := firstNonEmpty(rec.Location, "New Delhi")

	duration := "Flexible"
	if rec.DurationMonths > 0 {
		duration = fmt.Sprintf("%d Months", rec.DurationMonths)
	}

	sourceID := rec.JobID
	if sourceID == "" {
		sourceID = SyntheticID(SourceGovPortal, company, role, location)
	}

	return model.ListingDraft{
		SourceName:    SourceGovPortal,
		SourceID:      sourceID,
		SourceType:    model.SourceGovPortal,
		Company:       company,
		Role:          role,
		Location:      location,
		Sector:        firstNonEmpty(rec.Sector, "Public Administration"),
		Duration:      duration,
		Stipend:       parseStipend(rec.StipendAmount),
		Skills:        joinSkills(rec.RequiredSkills),
		Description:   firstNonEmpty(rec.Description, "No description provided."),
		Deadline:      parseDate(rec.ClosingDate),
		ExternalLink:  firstNonEmpty(rec.ApplyURL, "#"),
		RawData:       mustMarshal(rec),
		LastFetchedAt: now,
	}
}

// NormalizePartner maps a partner network record to a canonical draft.
func NormalizePartner(rec PartnerRecord, now time.Time) model.ListingDraft {
	company := firstNonEmpty(rec.CompanyName, "Partner Company")
	role := firstNonEmpty(rec.Title, "Intern")
	location := firstNonEmpty(rec.City, "Remote")

	duration := "Flexible"
	if rec.DurationWeeks > 0 {
		duration = fmt.Sprintf("%d Weeks", rec.DurationWeeks)
	}

	sourceID := rec.PartnerID
	if sourceID == "" {
		sourceID = SyntheticID(SourcePartnerAPI, company, role, location)
	}

	return model.ListingDraft{
		SourceName:    SourcePartnerAPI,
		SourceID:      sourceID,
		SourceType:    model.SourceAPI,
		Company:       company,
		Role:          role,
		Location:      location,
		Sector:        firstNonEmpty(rec.Industry, "Technology"),
		Duration:      duration,
		Stipend:       parseStipend(rec.StipendINR),
		Skills:        joinSkills(rec.Skills),
		Description:   firstNonEmpty(rec.Description, "No description provided."),
		Deadline:      parseDate(rec.ValidUntil),
		ExternalLink:  firstNonEmpty(rec.Link, "#"),
		RawData:       mustMarshal(rec),
		LastFetchedAt: now,
	}
}

// NormalizeTalent maps a scraped talent board card to a canonical draft.
func NormalizeTalent(rec TalentRecord, now time.Time) model.ListingDraft {
	company := firstNonEmpty(rec.Company, "Unknown Company")
	role := firstNonEmpty(rec.Role, "Intern")
	location := firstNonEmpty(rec.Location, "Remote")

	sourceID := rec.RefID
	if sourceID == "" {
		sourceID = SyntheticID(SourceTalentBoard, company, role, location)
	}

	return model.ListingDraft{
		SourceName:    SourceTalentBoard,
		SourceID:      sourceID,
		SourceType:    model.SourceAPI,
		Company:       company,
		Role:          role,
		Location:      location,
		Sector:        firstNonEmpty(rec.Sector, "Technology"),
		Duration:      firstNonEmpty(rec.Duration, "Flexible"),
		Stipend:       parseStipend(rec.Stipend),
		Skills:        normalizeSkillCSV(rec.Skills),
		Description:   firstNonEmpty(rec.Description, "No description provided."),
		Deadline:      parseDate(rec.Deadline),
		ExternalLink:  firstNonEmpty(rec.Link, "#"),
		RawData:       mustMarshal(rec),
		LastFetchedAt: now,
	}
}

// SyntheticID derives a stable source ID from listing content for upstreams
// that omit one. Content-hashed so a double fetch of the same record cannot
// mint two IDs.
func SyntheticID(source, company, role, location string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(company + "|" + role + "|" + location)))
	return fmt.Sprintf("%s_%x", source, sum[:8])
}

// parseStipend extracts a non-negative integer amount from free-form stipend
// text; anything unparseable defaults to 0.
func parseStipend(raw string) int {
	var digits strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return v
}

// parseDate accepts YYYY-MM-DD dates; anything else becomes a nil deadline.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func joinSkills(skills []string) string {
	trimmed := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s != "" {
			trimmed = append(trimmed, s)
		}
	}
	return strings.Join(trimmed, ", ")
}

func normalizeSkillCSV(csv string) string {
	return joinSkills(strings.Split(csv, ","))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// mustMarshal serialises the raw upstream record for the raw_data audit
// column. Wire structs contain only marshalable fields.
func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
