package verify_test

import (
	"testing"

	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/verify"
)

func TestParseStatus(t *testing.T) {
	valid := []string{"unverified", "verified", "rejected", "expired"}
	for _, s := range valid {
		got, err := verify.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}

	invalid := []string{"", "Verified", "pending", "deleted"}
	for _, s := range invalid {
		if _, err := verify.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) should fail", s)
		}
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		from    model.VerificationStatus
		to      model.VerificationStatus
		allowed bool
	}{
		{model.StatusUnverified, model.StatusVerified, true},
		{model.StatusUnverified, model.StatusRejected, true},
		{model.StatusUnverified, model.StatusExpired, true},
		{model.StatusUnverified, model.StatusUnverified, false},

		{model.StatusVerified, model.StatusExpired, true},
		{model.StatusVerified, model.StatusRejected, false},
		{model.StatusVerified, model.StatusUnverified, false},
		{model.StatusVerified, model.StatusVerified, false},

		{model.StatusRejected, model.StatusExpired, true},
		{model.StatusRejected, model.StatusVerified, false},
		{model.StatusRejected, model.StatusUnverified, false},

		// expired is terminal
		{model.StatusExpired, model.StatusUnverified, false},
		{model.StatusExpired, model.StatusVerified, false},
		{model.StatusExpired, model.StatusRejected, false},
		{model.StatusExpired, model.StatusExpired, false},
	}

	for _, c := range cases {
		if got := verify.IsTransitionAllowed(c.from, c.to); got != c.allowed {
			t.Errorf("IsTransitionAllowed(%s, %s) = %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestIsAdminDecision(t *testing.T) {
	if !verify.IsAdminDecision(model.StatusVerified) || !verify.IsAdminDecision(model.StatusRejected) {
		t.Error("verified and rejected are admin decisions")
	}
	if verify.IsAdminDecision(model.StatusExpired) || verify.IsAdminDecision(model.StatusUnverified) {
		t.Error("expired and unverified must not be settable by admins")
	}
}

func TestIsExpired(t *testing.T) {
	if !verify.IsExpired(model.StatusExpired) {
		t.Error("IsExpired(expired) = false")
	}
	if verify.IsExpired(model.StatusVerified) {
		t.Error("IsExpired(verified) = true")
	}
}
