package source

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/model"
)

// TalentBoard scrapes a public HTML internship board. One .listing-card per
// listing; fields live in child elements and the card's data-ref attribute.
type TalentBoard struct {
	URL    string
	client *http.Client
}

// NewTalentBoard constructs the adapter around a shared HTTP client.
func NewTalentBoard(url string, client *http.Client) *TalentBoard {
	return &TalentBoard{URL: url, client: client}
}

// Name implements Adapter.
func (t *TalentBoard) Name() string { return ingest.SourceTalentBoard }

// Fetch downloads the board page and normalises every card on it.
func (t *TalentBoard) Fetch(ctx context.Context) ([]model.ListingDraft, error) {
	if t.URL == "" {
		log.Println("[talent-board] TALENT_BOARD_URL not set — skipping source")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("talent board: http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("talent board returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("talent board: parse html: %w", err)
	}

	records := ParseBoard(doc)

	now := time.Now().UTC()
	drafts := make([]model.ListingDraft, 0, len(records))
	for _, rec := range records {
		drafts = append(drafts, ingest.NormalizeTalent(rec, now))
	}
	return drafts, nil
}

// ParseBoard extracts every listing card from a board document. Exported so
// tests can feed fixture HTML without a server.
func ParseBoard(doc *goquery.Document) []ingest.TalentRecord {
	var records []ingest.TalentRecord
	doc.Find(".listing-card").Each(func(_ int, card *goquery.Selection) {
		rec := ingest.TalentRecord{
			RefID:       card.AttrOr("data-ref", ""),
			Company:     cardText(card, ".company"),
			Role:        cardText(card, ".role"),
			Location:    cardText(card, ".location"),
			Sector:      cardText(card, ".sector"),
			Stipend:     cardText(card, ".stipend"),
			Deadline:    card.AttrOr("data-deadline", ""),
			Duration:    cardText(card, ".duration"),
			Skills:      cardText(card, ".skills"),
			Description: cardText(card, ".description"),
			Link:        card.Find("a.apply").AttrOr("href", ""),
		}
		// A card with neither company nor role is navigation chrome.
		if rec.Company == "" && rec.Role == "" {
			return
		}
		records = append(records, rec)
	})
	return records
}

func cardText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}
