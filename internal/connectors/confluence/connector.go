// Package confluence implements the Confluence content source. Pages
// are listed per space through the REST API with their storage-format
// body expanded, so the listing itself carries the page text and no
// separate fetch is needed.
package confluence

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/custodia-labs/infobot/internal/connectors"
	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.ContentSource = (*Connector)(nil)

// idPrefix namespaces Confluence page IDs so they can never collide
// with Drive file IDs in the shared index.
const idPrefix = "confluence_"

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 60 * time.Second

// pageLimit is the REST API page size for listings.
const pageLimit = 100

// Config holds Confluence connector configuration.
type Config struct {
	// BaseURL is the site root, e.g. "https://example.atlassian.net".
	BaseURL string

	// Username is the Atlassian account email.
	Username string

	// APIToken is the Atlassian API token.
	APIToken string

	// Spaces restricts listing to these space keys. Empty means every
	// space the account can see.
	Spaces []string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// Connector is the Confluence content source.
type Connector struct {
	client     *http.Client
	limiter    *connectors.RateLimiter
	baseURL    string
	spaces     []string
	authHeader string
	configured bool
}

// New creates a Confluence connector. Missing configuration produces a
// disabled connector rather than an error.
func New(cfg Config) *Connector {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	configured := cfg.BaseURL != "" && cfg.Username != "" && cfg.APIToken != ""
	if !configured {
		logger.Info("Confluence not configured - skipping initialisation")
	} else {
		logger.Info("Confluence connector initialised for: %s", cfg.BaseURL)
	}

	credentials := cfg.Username + ":" + cfg.APIToken
	return &Connector{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    connectors.NewRateLimiter(connectors.ServiceConfluence),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		spaces:     cfg.Spaces,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		configured: configured,
	}
}

// Label returns the source label stamped on produced chunks.
func (c *Connector) Label() string {
	return domain.SourceLabelWiki
}

// IsAvailable reports whether the connector is configured.
func (c *Connector) IsAvailable(_ context.Context) bool {
	return c.configured
}

// List returns every page in the configured spaces, with the page text
// inline. Per-space failures are logged and skipped so one broken
// space cannot sink the whole listing.
func (c *Connector) List(ctx context.Context) ([]domain.SourceDocument, error) {
	if !c.configured {
		return nil, errors.New("confluence not configured")
	}

	spaces := c.spaces
	if len(spaces) == 0 {
		discovered, err := c.fetchSpaces(ctx)
		if err != nil {
			return nil, fmt.Errorf("list spaces: %w", err)
		}
		spaces = discovered
	}
	logger.Info("Fetching pages from %d Confluence spaces", len(spaces))

	var docs []domain.SourceDocument
	for _, spaceKey := range spaces {
		pages, err := c.pagesFromSpace(ctx, strings.TrimSpace(spaceKey))
		if err != nil {
			logger.Error("Error fetching pages from space %s: %v", spaceKey, err)
			continue
		}
		docs = append(docs, pages...)
	}

	logger.Info("Found %d total pages from Confluence", len(docs))
	return docs, nil
}

// Fetch re-reads one page's body. Listings already carry the text
// inline, so this only runs when a caller holds a bare page ID.
func (c *Connector) Fetch(ctx context.Context, id, _ string) ([]byte, error) {
	if !c.configured {
		return nil, errors.New("confluence not configured")
	}

	pageID := strings.TrimPrefix(id, idPrefix)
	url := fmt.Sprintf("%s/wiki/rest/api/content/%s?expand=body.storage", c.baseURL, pageID)

	var page contentPage
	if err := c.getJSON(ctx, url, &page); err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", pageID, err)
	}
	return []byte(stripHTML(page.Body.Storage.Value)), nil
}

// spaceList is the REST space listing format.
type spaceList struct {
	Results []struct {
		Key string `json:"key"`
	} `json:"results"`
}

// contentPage is one page in the REST content listing.
type contentPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		When string `json:"when"`
	} `json:"version"`
	History struct {
		CreatedDate string `json:"createdDate"`
	} `json:"history"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

// contentList is the paginated REST content listing format.
type contentList struct {
	Results []contentPage `json:"results"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

// fetchSpaces discovers the space keys the account can see.
func (c *Connector) fetchSpaces(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/wiki/rest/api/space?limit=%d", c.baseURL, pageLimit)

	var list spaceList
	if err := c.getJSON(ctx, url, &list); err != nil {
		return nil, err
	}

	spaces := make([]string, 0, len(list.Results))
	for _, s := range list.Results {
		spaces = append(spaces, s.Key)
	}
	logger.Info("Found %d Confluence spaces", len(spaces))
	return spaces, nil
}

// pagesFromSpace lists every page in one space, following the REST
// cursor until exhausted.
func (c *Connector) pagesFromSpace(ctx context.Context, spaceKey string) ([]domain.SourceDocument, error) {
	nextURL := fmt.Sprintf("%s/wiki/rest/api/content?spaceKey=%s&type=page&expand=body.storage,version,history&limit=%d",
		c.baseURL, spaceKey, pageLimit)

	var docs []domain.SourceDocument
	for nextURL != "" {
		var list contentList
		if err := c.getJSON(ctx, nextURL, &list); err != nil {
			return nil, err
		}

		for _, page := range list.Results {
			docs = append(docs, c.toSourceDocument(page))
		}

		if list.Links.Next != "" {
			nextURL = c.baseURL + list.Links.Next
		} else {
			nextURL = ""
		}
	}

	logger.Info("Found %d pages in space %s", len(docs), spaceKey)
	return docs, nil
}

// toSourceDocument maps a REST page to the domain listing type with
// the body stripped to plain text.
func (c *Connector) toSourceDocument(page contentPage) domain.SourceDocument {
	return domain.SourceDocument{
		ID:            idPrefix + page.ID,
		Name:          page.Title,
		ContentType:   domain.ContentTypeWiki,
		ViewURL:       c.baseURL + "/wiki" + page.Links.WebUI,
		ModifiedAt:    page.Version.When,
		CreatedAt:     page.History.CreatedDate,
		InlineContent: stripHTML(page.Body.Storage.Value),
	}
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Connector) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		logger.Warn("Confluence rate limited, backing off")
		c.limiter.RecordRateLimitError(retryAfter)
		return fmt.Errorf("confluence rate limited (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("confluence error (status %d)", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// stripHTML reduces storage-format markup to plain text: tag contents
// joined by spaces, script and style bodies dropped, whitespace
// collapsed.
func stripHTML(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// Malformed markup still usually carries readable text.
		return strings.Join(strings.Fields(markup), " ")
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return strings.Join(strings.Fields(b.String()), " ")
}
