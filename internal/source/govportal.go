package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/model"
)

// GovPortal fetches internships from the government portal API.
// If URL is empty, Fetch returns (nil, nil) gracefully — the scheduler will
// simply skip this source and log a warning.
type GovPortal struct {
	URL    string
	client *http.Client
}

// NewGovPortal constructs the adapter around a shared HTTP client.
func NewGovPortal(url string, client *http.Client) *GovPortal {
	return &GovPortal{URL: url, client: client}
}

// Name implements Adapter.
func (g *GovPortal) Name() string { return ingest.SourceGovPortal }

// Fetch retrieves the portal's full listing set and normalises each record.
func (g *GovPortal) Fetch(ctx context.Context) ([]model.ListingDraft, error) {
	if g.URL == "" {
		log.Println("[gov-portal] GOV_PORTAL_URL not set — skipping source")
		return nil, nil
	}

	records, err := fetchJSON[ingest.GovRecord](ctx, g.client, g.URL)
	if err != nil {
		return nil, fmt.Errorf("gov portal: %w", err)
	}

	now := time.Now().UTC()
	drafts := make([]model.ListingDraft, 0, len(records))
	for _, rec := range records {
		drafts = append(drafts, ingest.NormalizeGov(rec, now))
	}
	return drafts, nil
}

// fetchJSON GETs url and decodes a JSON array of T.
func fetchJSON[T any](ctx context.Context, client *http.Client, url string) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(body))
	}

	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return records, nil
}
