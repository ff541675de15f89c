package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
)

// maxErrorBody bounds how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Options configures the catalog endpoint and paging parameters.
type Options struct {
	BaseURL  string
	PageSize int
	Sort     string
	Timeout  time.Duration
}

// Client fetches pages from the datos.gob.es catalog API.
// It implements pipeline.PageFetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	sort       string
	logger     *slog.Logger
}

// NewClient creates a catalog client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:  opts.BaseURL,
		pageSize: opts.PageSize,
		sort:     opts.Sort,
		logger:   logger,
	}
}

// FetchPage requests one zero-based page. A response without result.items is
// an empty page; a non-2xx status or an undecodable body is an error.
func (c *Client) FetchPage(ctx context.Context, page int) ([]domain.CatalogItem, error) {
	body, err := c.FetchRaw(ctx, page)
	if err != nil {
		return nil, err
	}
	items, err := DecodePage(body)
	if err != nil {
		return nil, fmt.Errorf("catalog page %d: %w", page, err)
	}
	return items, nil
}

// FetchRaw requests one zero-based page and returns the response body as
// received, after checking it is JSON.
func (c *Client) FetchRaw(ctx context.Context, page int) (json.RawMessage, error) {
	params := url.Values{
		"_pageSize": {strconv.Itoa(c.pageSize)},
		"_page":     {strconv.Itoa(page)},
	}
	if c.sort != "" {
		params.Set("_sort", c.sort)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog page %d request: %w", page, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog page response", "page", page, "url", req.URL.String(), "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("catalog API error: page %d: status %d: %s", page, resp.StatusCode, body)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog page %d: %w", page, err)
	}
	return body, nil
}

// DecodePage turns a page body into catalog items in page order.
func DecodePage(body json.RawMessage) ([]domain.CatalogItem, error) {
	raws := pageItems(body)
	items := make([]domain.CatalogItem, 0, len(raws))
	for i, raw := range raws {
		item, err := domain.DecodeItem(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// pageItems digs result.items out of the response body. Any missing or
// mistyped level yields no items.
func pageItems(body json.RawMessage) []json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	var result map[string]json.RawMessage
	if err := json.Unmarshal(envelope["result"], &result); err != nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(result["items"], &items); err != nil {
		return nil
	}
	return items
}
