package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/ytget/web-grabber/internal/model"
)

// Timeout constants
const (
	DefaultPageFetchTimeout = 10 * time.Second
)

// Request defaults
const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; webgrab/1.0)"
	AnchorSelector   = "a[href]"
)

// LinkParserService fetches a page and extracts links to digital files
type LinkParserService struct {
	client    *http.Client
	logger    zerolog.Logger
	table     model.ExtensionTable
	timeout   time.Duration
	userAgent string
	keepQuery bool
}

// LinkParserOption configures a LinkParserService
type LinkParserOption func(*LinkParserService)

// WithPageTimeout bounds the page request
func WithPageTimeout(timeout time.Duration) LinkParserOption {
	return func(p *LinkParserService) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with the page request
func WithUserAgent(ua string) LinkParserOption {
	return func(p *LinkParserService) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithExtensionTable replaces the table used to recognize and classify links
func WithExtensionTable(table model.ExtensionTable) LinkParserOption {
	return func(p *LinkParserService) {
		if len(table) > 0 {
			p.table = table
		}
	}
}

// WithKeepQuery keeps the query string on extracted links. By default links
// are reduced to scheme, host and path.
func WithKeepQuery(keep bool) LinkParserOption {
	return func(p *LinkParserService) {
		p.keepQuery = keep
	}
}

// NewLinkParserService creates a new link parser service
func NewLinkParserService(client *http.Client, logger zerolog.Logger, opts ...LinkParserOption) *LinkParserService {
	if client == nil {
		client = http.DefaultClient
	}
	p := &LinkParserService{
		client:    client,
		logger:    logger,
		table:     model.DefaultExtensionTable,
		timeout:   DefaultPageFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindDigitalFiles fetches pageURL and returns the classified file links it
// contains, in document order. Fetch failures are logged and produce an
// empty result.
func (p *LinkParserService) FindDigitalFiles(ctx context.Context, pageURL, domainFilter string) []model.FileLink {
	base, err := url.Parse(pageURL)
	if err != nil {
		p.logger.Error().Err(err).Str("url", pageURL).Msg("Invalid page URL")
		return nil
	}

	body, err := p.fetchPage(ctx, pageURL)
	if err != nil {
		p.logger.Error().Err(err).Str("url", model.DecodeForDisplay(pageURL)).Msg("Error fetching URL")
		return nil
	}

	links, err := p.ParseLinks(base, bytes.NewReader(body), domainFilter)
	if err != nil {
		p.logger.Error().Err(err).Str("url", model.DecodeForDisplay(pageURL)).Msg("Error parsing page")
		return nil
	}
	return links
}

// fetchPage performs a single bounded GET and returns the body of a 2xx response
func (p *LinkParserService) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return body, nil
}

// ParseLinks extracts digital file links from an HTML document. Relative
// hrefs are resolved against base; when base is nil only absolute hrefs are
// kept. A non-empty domainFilter must occur in the raw href.
func (p *LinkParserService) ParseLinks(base *url.URL, r io.Reader, domainFilter string) ([]model.FileLink, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var links []model.FileLink
	doc.Find(AnchorSelector).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}

		if domainFilter != "" && !strings.Contains(href, domainFilter) {
			return
		}

		resolved, ok := resolveHref(base, href, p.keepQuery)
		if !ok {
			return
		}

		ext := model.PathExtension(resolved)
		if !p.table.Supported(ext) {
			return
		}

		link := model.FileLink{URL: resolved, Category: p.table.CategoryOf(ext)}
		links = append(links, link)
		p.logger.Info().
			Str("url", link.DisplayURL()).
			Str("category", link.Category.String()).
			Msg("Found file")
	})

	return links, nil
}

// resolveHref turns href into an absolute URL string. The fragment is always
// dropped; the query only survives when keepQuery is set.
func resolveHref(base *url.URL, href string, keepQuery bool) (string, bool) {
	ref, err := url.Parse(escapeStrayPercents(strings.TrimSpace(href)))
	if err != nil {
		return "", false
	}

	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if !abs.IsAbs() || abs.Host == "" {
		return "", false
	}

	abs.Fragment = ""
	abs.RawFragment = ""
	if !keepQuery {
		abs.RawQuery = ""
		abs.ForceQuery = false
	}
	return abs.String(), true
}

// escapeStrayPercents rewrites every "%" that does not start a %XX escape as
// "%25", so hrefs with a malformed escape still parse
func escapeStrayPercents(href string) string {
	if !strings.Contains(href, "%") {
		return href
	}
	var b strings.Builder
	b.Grow(len(href))
	for i := 0; i < len(href); i++ {
		if href[i] == '%' && !(i+2 < len(href) && isHexDigit(href[i+1]) && isHexDigit(href[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(href[i])
	}
	return b.String()
}

func isHexDigit(c byte) bool {
	return strings.IndexByte("0123456789abcdefABCDEF", c) >= 0
}
