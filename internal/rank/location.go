package rank

import "strings"

// Location tier buckets. Lower is better.
const (
	TierExactCity = 1
	TierSameState = 2
	TierNearby    = 3
	TierOther     = 4
)

// tierScores maps a tier to its contribution to the weighted score.
var tierScores = map[int]int{
	TierExactCity: 100,
	TierSameState: 75,
	TierNearby:    50,
	TierOther:     25,
}

// Place is a normalised {city, state} pair. Unrecognised text leaves both
// fields empty.
type Place struct {
	City  string
	State string
}

// TierResult describes how well a listing location matches a preference set.
type TierResult struct {
	Tier  int
	Score int
	Label string
}

// NormalizeLocation resolves free-text location into a Place using the
// city→state gazetteer. Multi-word city names are checked against the whole
// string before tokenizing.
func (r *Rules) NormalizeLocation(input string) Place {
	raw := cleanLocation(input)
	if raw == "" {
		return Place{}
	}

	if state, ok := r.CityState[raw]; ok {
		return Place{City: raw, State: state}
	}

	tokens := strings.Fields(raw)
	for _, t := range tokens {
		if state, ok := r.CityState[t]; ok {
			return Place{City: t, State: state}
		}
	}

	if r.isKnownState(raw) {
		return Place{State: raw}
	}
	for _, t := range tokens {
		if r.isKnownState(t) {
			return Place{State: t}
		}
	}

	return Place{}
}

// LocationTier evaluates every preference token against the listing location
// and keeps the best (lowest) tier. An empty preference list, or any token
// equal to "any", disables location preference entirely.
func (r *Rules) LocationTier(preferredCSV, listingLocation string) TierResult {
	prefs := SplitPreferences(preferredCSV)
	if len(prefs) == 0 {
		return TierResult{Tier: TierOther, Score: tierScores[TierOther], Label: "Any Location"}
	}

	listing := r.NormalizeLocation(listingLocation)
	best := TierResult{Tier: TierOther, Score: tierScores[TierOther], Label: "Other Location"}

	for _, p := range prefs {
		pref := r.NormalizeLocation(p)
		if pref.City == "" && pref.State == "" {
			continue
		}

		tier, label := TierOther, "Other Location"
		switch {
		case pref.City != "" && listing.City != "" && pref.City == listing.City:
			tier, label = TierExactCity, "City Match"
		case pref.State != "" && listing.State != "" && pref.State == listing.State:
			tier, label = TierSameState, "State Match"
		case pref.City != "" && listing.City != "" && contains(r.NearbyCities[pref.City], listing.City):
			tier, label = TierNearby, "Nearby City"
		case pref.State != "" && listing.State != "" && contains(r.NearbyStates[pref.State], listing.State):
			tier, label = TierNearby, "Nearby State"
		}

		if tier < best.Tier {
			best = TierResult{Tier: tier, Score: tierScores[tier], Label: label}
		}
		if tier == TierExactCity {
			break // can't do better than an exact city hit
		}
	}

	return best
}

// SplitPreferences splits a comma-separated preference string, dropping
// blanks. A literal "any" token (case-insensitive) voids the whole list.
func SplitPreferences(csv string) []string {
	parts := strings.Split(csv, ",")
	prefs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.EqualFold(p, "any") {
			return nil
		}
		prefs = append(prefs, p)
	}
	return prefs
}

func (r *Rules) isKnownState(s string) bool {
	for _, state := range r.CityState {
		if state == s {
			return true
		}
	}
	return false
}

// cleanLocation lower-cases and strips everything but letters, digits and
// spaces, collapsing runs of separators.
func cleanLocation(input string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(input) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
