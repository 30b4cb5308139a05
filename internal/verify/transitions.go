// Package verify defines the trust state machine for listings.
//
// Valid status graph:
//
//	unverified ──► verified ──► expired
//	    │              │
//	    ├──► rejected ─┴──► expired
//	    └──────────────────► expired
//
// expired is terminal — nothing leaves it. Ingestion only ever creates
// listings as unverified; every other move goes through this package.
package verify

import (
	"fmt"

	"internmatch/listing-service/internal/model"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[model.VerificationStatus][]model.VerificationStatus{
	model.StatusUnverified: {model.StatusVerified, model.StatusRejected, model.StatusExpired},
	model.StatusVerified:   {model.StatusExpired},
	model.StatusRejected:   {model.StatusExpired},
	// expired is terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a VerificationStatus, returning an
// error for unknown values.
func ParseStatus(s string) (model.VerificationStatus, error) {
	st := model.VerificationStatus(s)
	switch st {
	case model.StatusUnverified, model.StatusVerified, model.StatusRejected, model.StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown verification status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to model.VerificationStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsAdminDecision reports whether the target status is one an admin may set
// directly. Expiry is reserved for the deadline sweep and sync deletions.
func IsAdminDecision(to model.VerificationStatus) bool {
	return to == model.StatusVerified || to == model.StatusRejected
}

// IsExpired returns true when status is the terminal expired state.
func IsExpired(s model.VerificationStatus) bool { return s == model.StatusExpired }
