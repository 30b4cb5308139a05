// Package rank implements the deterministic, location-first ranking engine.
//
// All lookup tables (gazetteer, adjacency, skill synonyms, degree
// equivalences) are immutable Rules values injected into the engine, so
// tests can substitute fixtures and a deployment can override the defaults
// with a YAML file.
package rank

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules holds the static lookup tables the engine matches against.
type Rules struct {
	CityState    map[string]string   `yaml:"cityState"`    // city → state, lower-case
	NearbyCities map[string][]string `yaml:"nearbyCities"` // city → adjacent cities
	NearbyStates map[string][]string `yaml:"nearbyStates"` // state → adjacent states
	SkillGroups  map[string][]string `yaml:"skillGroups"`  // canonical skill → synonyms
	DegreeGroups map[string][]string `yaml:"degreeGroups"` // requirement keyword → accepted qualifications
}

// DefaultRules parses the embedded rule tables.
func DefaultRules() (*Rules, error) {
	return parseRules(defaultRulesYAML)
}

// LoadRules reads rule tables from path, falling back to the embedded
// defaults when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read match rules %s: %w", path, err)
	}
	return parseRules(raw)
}

func parseRules(raw []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse match rules: %w", err)
	}
	if len(r.CityState) == 0 {
		return nil, fmt.Errorf("match rules: cityState table is empty")
	}
	return &r, nil
}
