package rank

import (
	"strings"

	"internmatch/listing-service/internal/model"
)

// minEligibleCGPA is the hard floor below which a student is never matched.
// A zero CGPA means "not supplied" and passes.
const minEligibleCGPA = 6.0

const sectorIT = "Information Technology"

// itQualificationMarkers are the qualification substrings accepted for
// IT-sector listings.
var itQualificationMarkers = []string{"computer", "cse", "technology", "it"}

// Eligible applies the hard gates that run before any scoring: IT-sector
// listings require a technical qualification, and a stated CGPA must clear
// the floor. Deterministic, like everything else in this package.
func Eligible(profile model.StudentProfile, listing model.Listing) bool {
	if listing.Sector == sectorIT {
		qual := strings.ToLower(profile.Qualification)
		technical := false
		for _, marker := range itQualificationMarkers {
			if strings.Contains(qual, marker) {
				technical = true
				break
			}
		}
		if !technical {
			return false
		}
	}

	if profile.CGPA > 0 && profile.CGPA < minEligibleCGPA {
		return false
	}

	return true
}
