package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"workshop-scraper/config"
	"workshop-scraper/models"
	"workshop-scraper/parser"
)

// Client fetches listing and detail pages for one workshop profile.
// Each fetch runs on a clone of the base collector so per-request
// handlers never leak between calls; pages must stay revisitable
// because a rate-limited page is fetched again after resume.
type Client struct {
	cfg        *config.Config
	listingURL string
	listing    *colly.Collector
	detail     *colly.Collector
}

// NewClient builds a fetch client for the given seed identifier.
func NewClient(cfg *config.Config, seed string) (*Client, error) {
	if seed == "" {
		return nil, fmt.Errorf("seed identifier cannot be empty")
	}

	listingURL := cfg.SeedURL(seed)
	parsed, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("listing url must include a host")
	}

	listing := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	listing.SetRequestTimeout(cfg.Timeout)

	detail := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	detail.SetRequestTimeout(cfg.Timeout)

	// The polite fixed delay between item detail requests.
	if err := detail.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      cfg.ItemDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure detail rate limit: %w", err)
	}

	return &Client{
		cfg:        cfg,
		listingURL: listingURL,
		listing:    listing,
		detail:     detail,
	}, nil
}

// WithTransport swaps the underlying HTTP transport. Used by tests.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.listing.WithTransport(rt)
	c.detail.WithTransport(rt)
}

// PageURL returns the listing URL for a page number.
func (c *Client) PageURL(page int) string {
	return fmt.Sprintf("%s&p=%d", c.listingURL, page)
}

// FetchListing retrieves one listing page and extracts its item
// stubs. An empty slice with a nil error means the listing is
// exhausted.
func (c *Client) FetchListing(ctx context.Context, page int) ([]models.ItemRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrTransient{Err: err}
	}

	var (
		refs     []models.ItemRef
		fetchErr error
	)

	col := c.listing.Clone()
	col.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = ErrTransient{Err: fmt.Errorf("parse listing page %d: %w", page, err)}
			return
		}
		refs = parser.Listing(doc)
	})
	col.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = Classify(err, status)
	})

	start := time.Now()
	visitErr, completed := visitAndWait(ctx, col, c.PageURL(page))
	if !completed {
		return nil, ErrTransient{Err: visitErr}
	}
	if visitErr != nil && fetchErr == nil {
		fetchErr = Classify(visitErr, 0)
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	slog.Debug("listing page fetched",
		slog.Int("page", page),
		slog.Int("items", len(refs)),
		slog.Duration("took", time.Since(start)),
	)
	return refs, nil
}

// FetchDetail retrieves one item's detail page and extracts its stat
// fields.
func (c *Client) FetchDetail(ctx context.Context, ref models.ItemRef) (parser.Detail, error) {
	if err := ctx.Err(); err != nil {
		return parser.Detail{}, ErrTransient{Err: err}
	}

	var (
		detail   parser.Detail
		parsed   bool
		fetchErr error
	)

	col := c.detail.Clone()
	col.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = ErrTransient{Err: fmt.Errorf("parse detail page %q: %w", ref.DetailURL, err)}
			return
		}
		detail = parser.ExtractDetail(doc)
		parsed = true
	})
	col.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = Classify(err, status)
	})

	visitErr, completed := visitAndWait(ctx, col, ref.DetailURL)
	if !completed {
		return parser.Detail{}, ErrTransient{Err: visitErr}
	}
	if visitErr != nil && fetchErr == nil {
		fetchErr = Classify(visitErr, 0)
	}

	if fetchErr != nil {
		return parser.Detail{}, fetchErr
	}
	if !parsed {
		return parser.Detail{}, ErrTransient{Err: fmt.Errorf("empty response for %q", ref.DetailURL)}
	}
	return detail, nil
}

// visitAndWait runs one collector visit, returning early with the
// context error when the caller is cancelled while the request is in
// flight. The abandoned request finishes in the background, bounded by
// the collector's request timeout.
func visitAndWait(ctx context.Context, col *colly.Collector, url string) (visitErr error, completed bool) {
	done := make(chan error, 1)
	go func() {
		err := col.Visit(url)
		col.Wait()
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err(), false
	case err := <-done:
		return err, true
	}
}
