package source

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/model"
)

// PartnerAPI fetches internships from the corporate partner network.
type PartnerAPI struct {
	URL    string
	client *http.Client
}

// NewPartnerAPI constructs the adapter around a shared HTTP client.
func NewPartnerAPI(url string, client *http.Client) *PartnerAPI {
	return &PartnerAPI{URL: url, client: client}
}

// Name implements Adapter.
func (p *PartnerAPI) Name() string { return ingest.SourcePartnerAPI }

// Fetch retrieves the partner network's listings and normalises each record.
func (p *PartnerAPI) Fetch(ctx context.Context) ([]model.ListingDraft, error) {
	if p.URL == "" {
		log.Println("[partner-api] PARTNER_API_URL not set — skipping source")
		return nil, nil
	}

	records, err := fetchJSON[ingest.PartnerRecord](ctx, p.client, p.URL)
	if err != nil {
		return nil, fmt.Errorf("partner api: %w", err)
	}

	now := time.Now().UTC()
	drafts := make([]model.ListingDraft, 0, len(records))
	for _, rec := range records {
		drafts = append(drafts, ingest.NormalizePartner(rec, now))
	}
	return drafts, nil
}
