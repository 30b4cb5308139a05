// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the listing service.
type Config struct {
	Port                string
	DatabaseURL         string
	RedisURL            string
	SyncIntervalHours   int // How often the ingestion cron fires
	FetchTimeoutSeconds int // Per-source fetch deadline
	GovPortalURL        string
	PartnerAPIURL       string
	TalentBoardURL      string
	MatchRulesPath      string // optional YAML override for ranking rule tables
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	interval := 6
	if s := os.Getenv("SYNC_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SYNC_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	timeout := 15
	if s := os.Getenv("FETCH_TIMEOUT_SECONDS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS must be a positive integer, got %q", s)
		}
		timeout = v
	}

	port := os.Getenv("LISTING_PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		SyncIntervalHours:   interval,
		FetchTimeoutSeconds: timeout,
		GovPortalURL:        os.Getenv("GOV_PORTAL_URL"),
		PartnerAPIURL:       os.Getenv("PARTNER_API_URL"),
		TalentBoardURL:      os.Getenv("TALENT_BOARD_URL"),
		MatchRulesPath:      os.Getenv("MATCH_RULES_PATH"),
	}, nil
}
