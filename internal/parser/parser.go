package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Houeta/yacht-watch/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var (
	// ErrSourceUnavailable is returned on transport errors and non-200 responses.
	ErrSourceUnavailable = errors.New("listing source unavailable")
	// ErrMalformedListing is returned for a listing block missing a required field.
	ErrMalformedListing = errors.New("malformed listing")
)

// Selectors of the listing page. Only this file knows the page structure.
const (
	listingSelector  = "div.bfl-info"
	titleSelector    = "h2.bfl-title"
	priceSelector    = "h3.bfl-price"
	locationSelector = "h3.bfl-location"
)

// Options configures the request sent to the listing source.
type Options struct {
	URL            string
	UserAgent      string
	Referer        string
	AcceptLanguage string
	Timeout        time.Duration
	IDSegment      int // IDSegment is the index of the listing ID among the link's path segments.
}

// HTMLParser fetches and parses the current inventory.
type HTMLParser interface {
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)
}

type Parser struct {
	log    *slog.Logger
	client *resty.Client
	opts   Options
	now    func() time.Time
}

func NewParser(log *slog.Logger, opts Options) *Parser {
	return newParser(log, opts, &http.Client{})
}

func newParser(log *slog.Logger, opts Options, hc *http.Client) *Parser {
	client := resty.NewWithClient(hc).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Referer != "" {
		client.SetHeader("Referer", opts.Referer)
	}
	if opts.AcceptLanguage != "" {
		client.SetHeader("Accept-Language", opts.AcceptLanguage)
	}

	return &Parser{log: log, client: client, opts: opts, now: time.Now}
}

// FetchSnapshot retrieves the listing page and parses every listing on it.
func (p *Parser) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	body, err := p.getHTMLResponse(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to get html response: %w", err)
	}

	listings, err := p.parseListings(ctx, bytes.NewReader(body))
	if err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{Date: p.now(), Listings: listings}, nil
}

func (p *Parser) getHTMLResponse(ctx context.Context) ([]byte, error) {
	reqURL, err := url.Parse(p.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination URL %s: %w", p.opts.URL, err)
	}

	p.log.DebugContext(ctx, "Send request", "method", http.MethodGet, "URL", reqURL.String())

	res, err := p.client.R().SetContext(ctx).Get(reqURL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to request %s: %w", ErrSourceUnavailable, p.opts.URL, err)
	}

	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status code error: [%d] %s", ErrSourceUnavailable, res.StatusCode(), res.Status())
	}

	p.log.InfoContext(ctx, "Successfully received http response", "status code", res.StatusCode(), "bytes", len(res.Body()))

	return res.Body(), nil
}

func (p *Parser) parseListings(ctx context.Context, inp io.Reader) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return nil, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	base, err := url.Parse(p.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination URL %s: %w", p.opts.URL, err)
	}

	var (
		listings []models.Listing
		parseErr error
	)

	doc.Find(listingSelector).EachWithBreak(func(idx int, s *goquery.Selection) bool {
		listing, err := p.parseListing(base, s)
		if err != nil {
			parseErr = fmt.Errorf("%w: block %d: %w", ErrMalformedListing, idx, err)
			return false
		}

		p.log.DebugContext(
			ctx,
			"Parsed listing",
			"ID", listing.ID,
			"Name", listing.Name,
			"Price", listing.Price,
		)
		listings = append(listings, listing)

		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	return listings, nil
}

func (p *Parser) parseListing(base *url.URL, s *goquery.Selection) (models.Listing, error) {
	title := s.Find(titleSelector).First()
	if title.Length() == 0 {
		return models.Listing{}, errors.New("missing title")
	}

	href, ok := title.Find("a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return models.Listing{}, errors.New("missing listing link")
	}

	id, err := listingID(base, href, p.opts.IDSegment)
	if err != nil {
		return models.Listing{}, err
	}

	listing := models.Listing{
		ID:       id,
		URL:      href,
		Name:     strings.TrimSpace(title.Text()),
		Price:    strings.TrimSpace(s.Find(priceSelector).First().Text()),
		Location: strings.TrimSpace(s.Find(locationSelector).First().Text()),
	}

	switch {
	case listing.Name == "":
		return models.Listing{}, fmt.Errorf("listing %s: empty name", id)
	case listing.Price == "":
		return models.Listing{}, fmt.Errorf("listing %s: missing price", id)
	case listing.Location == "":
		return models.Listing{}, fmt.Errorf("listing %s: missing location", id)
	}

	return listing, nil
}

// listingID resolves href against the page URL and returns the path segment at index.
func listingID(base *url.URL, href string, index int) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid listing link %q: %w", href, err)
	}

	var segments []string
	for _, seg := range strings.Split(base.ResolveReference(ref).Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	if index < 0 || index >= len(segments) {
		return "", fmt.Errorf("no listing id in link %q", href)
	}

	return segments[index], nil
}
