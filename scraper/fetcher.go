package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// ErrHTTPStatus is returned when the search page answers with a non-2xx status.
var ErrHTTPStatus = errors.New("unexpected http status")

// Fetcher retrieves the raw markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages with a plain HTTP GET and a browser-like header set.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates an HTTPFetcher. timeout bounds every request on top of
// whatever deadline the caller's context carries.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "de-DE,de;q=0.9,en;q=0.8")
	client.SetTimeout(timeout)

	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if code := res.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("fetch %s: %w: %d", url, ErrHTTPStatus, code)
	}
	return res.Body(), nil
}
