// Package mediacrawler is the HTTP client for the crawler API the panel drives.
package mediacrawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/repository"
	"github.com/user/crawler-panel/pkg/jsonutil"
	"github.com/user/crawler-panel/pkg/metrics"
	"github.com/user/crawler-panel/pkg/utils"
)

const (
	outcomeOK             = "ok"
	outcomeAPIError       = "api_error"
	outcomeTransportError = "transport_error"
	outcomeDecodeError    = "decode_error"
)

var _ repository.CrawlerAPI = (*Client)(nil)

// Client talks to the crawler API at a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := utils.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) GetStatus(ctx context.Context) (*entity.ServiceStatus, error) {
	return call[entity.ServiceStatus](ctx, c, http.MethodGet, "/", "/", nil)
}

func (c *Client) GetPlatforms(ctx context.Context) (*entity.PlatformList, error) {
	return call[entity.PlatformList](ctx, c, http.MethodGet, "/platforms", "/platforms", nil)
}

func (c *Client) Search(ctx context.Context, req entity.SearchRequest) (*entity.APIResponse, error) {
	return c.post(ctx, entity.OperationSearch.Endpoint(false), req)
}

func (c *Client) SearchAsync(ctx context.Context, req entity.SearchRequest) (*entity.APIResponse, error) {
	return c.post(ctx, entity.OperationSearch.Endpoint(true), req)
}

func (c *Client) GetDetail(ctx context.Context, req entity.DetailRequest) (*entity.APIResponse, error) {
	return c.post(ctx, entity.OperationDetail.Endpoint(false), req)
}

func (c *Client) GetDetailAsync(ctx context.Context, req entity.DetailRequest) (*entity.APIResponse, error) {
	return c.post(ctx, entity.OperationDetail.Endpoint(true), req)
}

func (c *Client) GetCreator(ctx context.Context, req entity.CreatorRequest) (*entity.APIResponse, error) {
	return c.post(ctx, entity.OperationCreator.Endpoint(false), req)
}

func (c *Client) GetCreatorAsync(ctx context.Context, req entity.CreatorRequest) (*entity.APIResponse, error) {
	return c.post(ctx, entity.OperationCreator.Endpoint(true), req)
}

// QuickSearch runs a search through the URL-parameter variant of the API.
func (c *Client) QuickSearch(ctx context.Context, platform, keywords string, opts entity.QuickSearchOptions) (*entity.APIResponse, error) {
	loginType := opts.LoginType
	if loginType == "" {
		loginType = entity.LoginTypeQRCode
	}
	startPage := opts.StartPage
	if startPage < 1 {
		startPage = 1
	}
	getComment := true
	if opts.GetComment != nil {
		getComment = *opts.GetComment
	}

	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("login_type", string(loginType))
	params.Set("start_page", strconv.Itoa(startPage))
	params.Set("get_comment", strconv.FormatBool(getComment))

	endpoint := "/search/" + url.PathEscape(platform) + "?" + params.Encode()
	return call[entity.APIResponse](ctx, c, http.MethodGet, endpoint, "/search/{platform}", nil)
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}) (*entity.APIResponse, error) {
	return call[entity.APIResponse](ctx, c, http.MethodPost, endpoint, endpoint, body)
}

// call performs one JSON round trip. label is the endpoint template used for
// metrics so query strings and path parameters do not explode cardinality.
func call[T any](ctx context.Context, c *Client, method, endpoint, label string, body interface{}) (*T, error) {
	start := time.Now()
	outcome := outcomeTransportError
	defer func() {
		metrics.ObserveUpstream(label, outcome, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := jsonutil.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", label, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, utils.JoinURL(c.baseURL, endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", label, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", label, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = outcomeAPIError
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}

	var out T
	if err := jsonutil.Unmarshal(data, &out); err != nil {
		outcome = outcomeDecodeError
		return nil, fmt.Errorf("decode %s response: %w", label, err)
	}
	outcome = outcomeOK
	return &out, nil
}
