package rank

import (
	"math"
	"strings"
)

// Neutral and weak skill-score baselines. A listing without stated skills is
// no evidence either way; a student without skills is weak evidence, not
// proof of mismatch.
const (
	skillScoreNoRequirement = 50
	skillScoreNoUserSkills  = 10
	educationPartialScore   = 50
)

// SkillMatch is the outcome of matching one user skill set against a
// listing's required skills.
type SkillMatch struct {
	Score   int // 0-100
	Count   int // raw number of required skills covered
	Matched []string
}

// MatchSkills counts how many of the listing's comma-joined required skills
// are covered by userSkills. A required skill counts as matched on equality,
// substring containment in either direction, or shared synonym group.
func (r *Rules) MatchSkills(userSkills []string, listingSkills string) SkillMatch {
	required := splitSkills(listingSkills)
	if len(required) == 0 {
		return SkillMatch{Score: skillScoreNoRequirement}
	}
	if len(userSkills) == 0 {
		return SkillMatch{Score: skillScoreNoUserSkills}
	}

	lowered := make([]string, 0, len(userSkills))
	for _, s := range userSkills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			lowered = append(lowered, s)
		}
	}

	var matched []string
	for _, req := range required {
		for _, us := range lowered {
			if skillCovers(us, req) || r.skillsSimilar(us, req) {
				matched = append(matched, req)
				break
			}
		}
	}

	score := int(math.Round(float64(len(matched)) / float64(len(required)) * 100))
	return SkillMatch{Score: score, Count: len(matched), Matched: matched}
}

// MissingSkills returns the listing's required skills not covered by any of
// the user's skill sets, under the same matching rule as scoring.
func (r *Rules) MissingSkills(listingSkills string, userSkillSets ...[]string) []string {
	var user []string
	for _, set := range userSkillSets {
		for _, s := range set {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				user = append(user, s)
			}
		}
	}

	var missing []string
	for _, req := range splitSkills(listingSkills) {
		covered := false
		for _, us := range user {
			if skillCovers(us, req) || r.skillsSimilar(us, req) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, req)
		}
	}
	return missing
}

// EducationScore matches the student's qualification against the listing's
// stated requirement. No requirement is a full match; otherwise substring
// containment in either direction or a degree-equivalence hit scores 100,
// anything else the partial-credit baseline. Never zero.
func (r *Rules) EducationScore(qualification, requirement string) int {
	req := strings.ToLower(strings.TrimSpace(requirement))
	if req == "" {
		return 100
	}

	qual := strings.ToLower(strings.TrimSpace(qualification))
	if qual != "" && (strings.Contains(qual, req) || strings.Contains(req, qual)) {
		return 100
	}

	for keyword, accepted := range r.DegreeGroups {
		if !strings.Contains(req, keyword) {
			continue
		}
		for _, a := range accepted {
			if strings.Contains(qual, a) {
				return 100
			}
		}
	}

	return educationPartialScore
}

// skillsSimilar reports whether both skills belong to the same synonym group.
func (r *Rules) skillsSimilar(a, b string) bool {
	for canonical, synonyms := range r.SkillGroups {
		aIn := a == canonical || contains(synonyms, a)
		bIn := b == canonical || contains(synonyms, b)
		if aIn && bIn {
			return true
		}
	}
	return false
}

func skillCovers(userSkill, required string) bool {
	return userSkill == required ||
		strings.Contains(userSkill, required) ||
		strings.Contains(required, userSkill)
}

func splitSkills(csv string) []string {
	parts := strings.Split(csv, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}
