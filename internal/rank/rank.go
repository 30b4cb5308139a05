package rank

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"

	"internmatch/listing-service/internal/model"
)

// Factor weights for the final match score. Location stays a minor weighted
// factor on purpose — the tier drives ordering, not the raw score.
const (
	weightResumeSkills  = 0.40
	weightProfileSkills = 0.30
	weightEducation     = 0.15
	weightLocation      = 0.15
)

// minSkillMatches is the threshold separating "has enough overlap" listings
// inside tiers 2-4.
const minSkillMatches = 2

// Engine ranks listings against a student profile. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	rules   *Rules
	workers int
}

// NewEngine builds a ranking engine around immutable rule tables.
func NewEngine(rules *Rules) *Engine {
	return &Engine{rules: rules, workers: runtime.NumCPU()}
}

// Score computes the full match breakdown for one listing. Pure and
// deterministic.
func (e *Engine) Score(profile model.StudentProfile, listing model.Listing) model.MatchResult {
	resume := e.rules.MatchSkills(profile.ResumeSkills, listing.Skills)
	declared := e.rules.MatchSkills(profile.Skills, listing.Skills)
	education := e.rules.EducationScore(profile.Qualification, listing.Requirements)
	loc := e.rules.LocationTier(profile.PreferredLocations, listing.Location)

	weighted := float64(resume.Score)*weightResumeSkills +
		float64(declared.Score)*weightProfileSkills +
		float64(education)*weightEducation +
		float64(loc.Score)*weightLocation

	final := int(math.Round(weighted))
	if final < 0 {
		final = 0
	} else if final > 100 {
		final = 100
	}

	result := model.MatchResult{
		Listing:       listing,
		FinalScore:    final,
		LocationTier:  loc.Tier,
		LocationLabel: loc.Label,
		Breakdown: model.ScoreBreakdown{
			ResumeSkillScore:  resume.Score,
			ProfileSkillScore: declared.Score,
			EducationScore:    education,
			LocationScore:     loc.Score,
		},
		TotalSkillMatches: resume.Count + declared.Count,
		MatchLabel:        MatchLabel(final),
	}
	e.addInsights(profile, &result)
	return result
}

// Rank filters listings through the eligibility gates, scores the survivors,
// applies the location-first ordering contract and returns at most limit
// results.
//
// Ordering: when the profile states a location preference and at least one
// listing lands in tiers 1-3, tier-4 listings are dropped. Survivors are
// bucketed by tier; tier 1 sorts by (skill matches, final score), tiers 2-4
// additionally put listings meeting the minimum skill threshold first.
// Buckets concatenate tier 1→4, so a location match always outranks a
// higher-scoring listing from a worse tier.
func (e *Engine) Rank(profile model.StudentProfile, listings []model.Listing, limit int) []model.MatchResult {
	eligible := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if Eligible(profile, l) {
			eligible = append(eligible, l)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	scored := e.scoreAll(profile, eligible)

	if len(SplitPreferences(profile.PreferredLocations)) > 0 {
		nearby := make([]model.MatchResult, 0, len(scored))
		for _, m := range scored {
			if m.LocationTier <= TierNearby {
				nearby = append(nearby, m)
			}
		}
		if len(nearby) > 0 {
			scored = nearby
		}
	}

	var buckets [4][]model.MatchResult
	for _, m := range scored {
		buckets[m.LocationTier-1] = append(buckets[m.LocationTier-1], m)
	}
	for tier := TierExactCity; tier <= TierOther; tier++ {
		sortTier(buckets[tier-1], tier)
	}

	ranked := make([]model.MatchResult, 0, len(scored))
	for _, b := range buckets {
		ranked = append(ranked, b...)
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// scoreAll maps Score over the listings on a bounded worker pool. Results
// land at their input index, so the output order is deterministic.
func (e *Engine) scoreAll(profile model.StudentProfile, listings []model.Listing) []model.MatchResult {
	results := make([]model.MatchResult, len(listings))

	workers := e.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(listings) {
		workers = len(listings)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = e.Score(profile, listings[idx])
			}
		}()
	}
	for idx := range listings {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// sortTier orders one tier bucket in place. Tier 1 skips the minimum-skill
// split: any exact-city hit is worth surfacing.
func sortTier(bucket []model.MatchResult, tier int) {
	sort.SliceStable(bucket, func(i, j int) bool {
		a, b := bucket[i], bucket[j]
		if tier != TierExactCity {
			aMin := a.TotalSkillMatches >= minSkillMatches
			bMin := b.TotalSkillMatches >= minSkillMatches
			if aMin != bMin {
				return aMin
			}
		}
		if a.TotalSkillMatches != b.TotalSkillMatches {
			return a.TotalSkillMatches > b.TotalSkillMatches
		}
		return a.FinalScore > b.FinalScore
	})
}

// addInsights attaches the best-effort missing-skill and relocation tips.
func (e *Engine) addInsights(profile model.StudentProfile, m *model.MatchResult) {
	m.MissingSkills = e.rules.MissingSkills(m.Listing.Skills, profile.Skills, profile.ResumeSkills)

	if len(m.MissingSkills) > 0 {
		top := m.MissingSkills
		if len(top) > 3 {
			top = top[:3]
		}
		m.ImprovementTips = append(m.ImprovementTips,
			fmt.Sprintf("Learn %s to boost your match score.", strings.Join(top, ", ")))
	}
	if m.LocationTier > TierSameState {
		m.ImprovementTips = append(m.ImprovementTips,
			fmt.Sprintf("This internship is in %s (Tier %d). Consider if you can relocate.",
				m.Listing.Location, m.LocationTier))
	}
}

// MatchLabel maps a final score to its display band.
func MatchLabel(score int) string {
	switch {
	case score >= 85:
		return "Excellent Match"
	case score >= 70:
		return "Good Match"
	case score >= 55:
		return "Fair Match"
	case score >= 40:
		return "Average Match"
	default:
		return "Poor Match"
	}
}
