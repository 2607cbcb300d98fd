package berlinovo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"apartment-tracker/models"
	"apartment-tracker/scraper"
	"apartment-tracker/utils"
)

// ErrPageStructure means the page came back but the results container is
// missing, so an empty extraction cannot be trusted as "no listings".
var ErrPageStructure = errors.New("results container not found")

// Source fetches the berlinovo search page and extracts its listings.
type Source struct {
	fetcher         scraper.Fetcher
	searchURL       string
	baseURL         string
	resultsSelector string
	logger          *utils.Logger
	now             func() time.Time

	// set while the results container keeps missing, so the selector is
	// reported once per outage
	structureWarned bool
}

// Options configures a Source.
type Options struct {
	SearchURL       string
	BaseURL         string
	ResultsSelector string
}

// New creates a Source on top of the given fetcher.
func New(fetcher scraper.Fetcher, opts Options, logger *utils.Logger) *Source {
	return &Source{
		fetcher:         fetcher,
		searchURL:       opts.SearchURL,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		resultsSelector: opts.ResultsSelector,
		logger:          logger,
		now:             time.Now,
	}
}

// Fetch returns the current snapshot of the search page. Capture times are
// truncated to microseconds so they survive a round trip through Postgres.
func (s *Source) Fetch(ctx context.Context) (models.Snapshot, error) {
	body, err := s.fetcher.Fetch(ctx, s.searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	listings, err := extract(doc, s.baseURL, s.resultsSelector, s.now().Truncate(time.Microsecond))
	if errors.Is(err, ErrPageStructure) {
		if !s.structureWarned {
			s.logger.Warn("[berlinovo] Results container %q not found on %s; check RESULTS_SELECTOR", s.resultsSelector, s.searchURL)
			s.structureWarned = true
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	s.structureWarned = false

	if s.logger.DebugEnabled() {
		if html, ok := firstArticleHTML(doc); ok {
			s.logger.Debug("[berlinovo] First article markup:\n%s", html)
		}
	}
	s.logger.Debug("[berlinovo] Extracted %d listings from %s", len(listings), s.searchURL)
	return listings, nil
}

// Extract parses the search page markup. Missing fields become empty strings;
// only a missing results container is reported as an error.
func Extract(body []byte, baseURL, resultsSelector string, capturedAt time.Time) (models.Snapshot, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	return extract(doc, baseURL, resultsSelector, capturedAt)
}

func parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return doc, nil
}

func extract(doc *goquery.Document, baseURL, resultsSelector string, capturedAt time.Time) (models.Snapshot, error) {
	root := doc.Selection
	if resultsSelector != "" {
		root = doc.Find(resultsSelector)
		if root.Length() == 0 {
			return nil, fmt.Errorf("%w: %q", ErrPageStructure, resultsSelector)
		}
	}

	listings := models.Snapshot{}
	root.Find("article").Each(func(_ int, apt *goquery.Selection) {
		titleLink := apt.Find("div.title a").First()

		url := ""
		if href, ok := titleLink.Attr("href"); ok {
			url = absoluteURL(baseURL, href)
		}

		id, _ := apt.Attr("data-id")

		listings = append(listings, models.Listing{
			ID:        strings.TrimSpace(id),
			Title:     text(titleLink),
			URL:       url,
			Address:   text(apt.Find("span.address-line1").First()),
			Price:     text(apt.Find("div.field--name-field-total-rent div.field__item").First()),
			Size:      text(apt.Find("div.size").First()),
			Rooms:     text(apt.Find("div.rooms").First()),
			Timestamp: capturedAt,
		})
	})

	return listings, nil
}

// firstArticleHTML returns the markup of the first article, used to debug
// selector drift when fields come back empty.
func firstArticleHTML(doc *goquery.Document) (string, bool) {
	first := doc.Find("article").First()
	if first.Length() == 0 {
		return "", false
	}
	html, err := goquery.OuterHtml(first)
	if err != nil {
		return "", false
	}
	return html, true
}

func text(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(s.Text())
}

func absoluteURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseURL + href
}
