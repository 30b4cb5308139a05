package ingest_test

import (
	"strings"
	"testing"
	"time"

	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/model"
)

var fetchedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNormalizeGov_FullRecord(t *testing.T) {
	rec := ingest.GovRecord{
		JobID:          "GOV-2026-001",
		JobTitle:       "Data Analyst Intern",
		MinistryName:   "Ministry of Statistics",
		Sector:         "Analytics",
		Location:       "New Delhi",
		StipendAmount:  "₹15,000 per month",
		ClosingDate:    "2026-04-15",
		DurationMonths: 6,
		Description:    "Assist with census data.",
		RequiredSkills: []string{"Python", " SQL ", ""},
		ApplyURL:       "https://gov.example/apply/1",
	}

	got := ingest.NormalizeGov(rec, fetchedAt)

	if got.SourceName != ingest.SourceGovPortal || got.SourceID != "GOV-2026-001" {
		t.Errorf("source identity = %s/%s", got.SourceName, got.SourceID)
	}
	if got.SourceType != model.SourceGovPortal {
		t.Errorf("SourceType = %s, want %s", got.SourceType, model.SourceGovPortal)
	}
	if got.Company != "Ministry of Statistics" {
		t.Errorf("Company = %q", got.Company)
	}
	if got.Stipend != 15000 {
		t.Errorf("Stipend = %d, want 15000", got.Stipend)
	}
	if got.Duration != "6 Months" {
		t.Errorf("Duration = %q, want %q", got.Duration, "6 Months")
	}
	if got.Skills != "Python, SQL" {
		t.Errorf("Skills = %q, want %q", got.Skills, "Python, SQL")
	}
	if got.Deadline == nil || !got.Deadline.Equal(time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Deadline = %v", got.Deadline)
	}
	if !got.LastFetchedAt.Equal(fetchedAt) {
		t.Errorf("LastFetchedAt = %v", got.LastFetchedAt)
	}
	if len(got.RawData) == 0 || !strings.Contains(string(got.RawData), "GOV-2026-001") {
		t.Errorf("RawData should carry the upstream record, got %s", got.RawData)
	}
}

// Mapping never fails: an empty record still yields a complete draft with
// source-specific defaults and a synthetic ID.
func TestNormalize_DefaultsOnEmptyRecords(t *testing.T) {
	gov := ingest.NormalizeGov(ingest.GovRecord{}, fetchedAt)
	if gov.Company != "Govt of India" || gov.Role != "Intern" || gov.Location != "New Delhi" {
		t.Errorf("gov defaults = %q/%q/%q", gov.Company, gov.Role, gov.Location)
	}
	if gov.Sector != "Public Administration" || gov.Duration != "Flexible" {
		t.Errorf("gov defaults = %q/%q", gov.Sector, gov.Duration)
	}

	partner := ingest.NormalizePartner(ingest.PartnerRecord{}, fetchedAt)
	if partner.Company != "Partner Company" || partner.Location != "Remote" || partner.Sector != "Technology" {
		t.Errorf("partner defaults = %q/%q/%q", partner.Company, partner.Location, partner.Sector)
	}

	talent := ingest.NormalizeTalent(ingest.TalentRecord{}, fetchedAt)
	if talent.Company != "Unknown Company" || talent.Location != "Remote" {
		t.Errorf("talent defaults = %q/%q", talent.Company, talent.Location)
	}

	for _, draft := range []model.ListingDraft{gov, partner, talent} {
		if draft.SourceID == "" {
			t.Errorf("%s: missing synthetic source ID", draft.SourceName)
		}
		if draft.Stipend != 0 {
			t.Errorf("%s: Stipend = %d, want 0", draft.SourceName, draft.Stipend)
		}
		if draft.Deadline != nil {
			t.Errorf("%s: Deadline = %v, want nil", draft.SourceName, draft.Deadline)
		}
		if draft.ExternalLink != "#" {
			t.Errorf("%s: ExternalLink = %q, want #", draft.SourceName, draft.ExternalLink)
		}
		if draft.Description != "No description provided." {
			t.Errorf("%s: Description = %q", draft.SourceName, draft.Description)
		}
	}
}

func TestNormalizePartner_WeeksDuration(t *testing.T) {
	got := ingest.NormalizePartner(ingest.PartnerRecord{DurationWeeks: 8}, fetchedAt)
	if got.Duration != "8 Weeks" {
		t.Errorf("Duration = %q, want %q", got.Duration, "8 Weeks")
	}
}

func TestNormalizeTalent_SkillCSVCleanup(t *testing.T) {
	got := ingest.NormalizeTalent(ingest.TalentRecord{
		RefID:  "TB-7",
		Skills: " React ,, Node.js , ",
	}, fetchedAt)
	if got.Skills != "React, Node.js" {
		t.Errorf("Skills = %q, want %q", got.Skills, "React, Node.js")
	}
}

// The card's own description comes through; the role never stands in for it.
func TestNormalizeTalent_Description(t *testing.T) {
	got := ingest.NormalizeTalent(ingest.TalentRecord{
		RefID:       "TB-8",
		Role:        "QA Intern",
		Description: "Own the regression suite.",
	}, fetchedAt)
	if got.Description != "Own the regression suite." {
		t.Errorf("Description = %q", got.Description)
	}

	noDesc := ingest.NormalizeTalent(ingest.TalentRecord{RefID: "TB-9", Role: "QA Intern"}, fetchedAt)
	if noDesc.Description != "No description provided." {
		t.Errorf("Description = %q, want the default", noDesc.Description)
	}
}

// SyntheticID is a pure function of content; refetching the same record must
// never mint a second identity, and case must not matter.
func TestSyntheticID_StableAndCaseInsensitive(t *testing.T) {
	a := ingest.SyntheticID("GOV_PORTAL", "NITI Aayog", "Policy Intern", "New Delhi")
	b := ingest.SyntheticID("GOV_PORTAL", "niti aayog", "POLICY INTERN", "new delhi")
	if a != b {
		t.Errorf("case variants produced distinct IDs: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "GOV_PORTAL_") {
		t.Errorf("ID %q should carry the source prefix", a)
	}

	other := ingest.SyntheticID("GOV_PORTAL", "NITI Aayog", "Policy Intern", "Mumbai")
	if a == other {
		t.Errorf("different content produced the same ID %s", a)
	}
}

func TestNormalizeGov_StipendParsing(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"₹10,000", 10000},
		{"10000", 10000},
		{"Unpaid", 0},
		{"", 0},
		{"Rs. 5,000/month", 5000},
	}
	for _, c := range cases {
		got := ingest.NormalizeGov(ingest.GovRecord{StipendAmount: c.raw}, fetchedAt)
		if got.Stipend != c.want {
			t.Errorf("stipend %q = %d, want %d", c.raw, got.Stipend, c.want)
		}
	}
}

func TestNormalizeGov_BadDeadline(t *testing.T) {
	got := ingest.NormalizeGov(ingest.GovRecord{ClosingDate: "15/04/2026"}, fetchedAt)
	if got.Deadline != nil {
		t.Errorf("unparseable date should yield nil deadline, got %v", got.Deadline)
	}
}
