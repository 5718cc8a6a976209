// Package tavily is a client for the Tavily web search API.
package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "prism-workers/internal/common/http"
	"prism-workers/internal/search/ranker"
)

const (
	DefaultBaseURL = "https://api.tavily.com"

	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

var (
	ErrNotConfigured = errors.New("WEB_SEARCH_NOT_CONFIGURED")
	ErrTimeout       = errors.New("WEB_SEARCH_TIMEOUT")
	ErrAuthFailed    = errors.New("WEB_SEARCH_AUTH_FAILED")
	ErrRateLimited   = errors.New("WEB_SEARCH_RATE_LIMITED")
	ErrFailed        = errors.New("WEB_SEARCH_FAILED")
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type Request struct {
	Query         string
	MaxResults    int
	Depth         string
	IncludeAnswer bool
}

type Response struct {
	Query        string       `json:"query"`
	Answer       string       `json:"answer"`
	Results      []ranker.Hit `json:"results"`
	ResponseTime float64      `json:"response_time"`
}

type searchBody struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains"`
}

type errorBody struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

type Client struct {
	http    *commonhttp.Client
	baseURL string
	apiKey  string
}

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    commonhttp.NewClient(timeout).WithRetries(cfg.MaxRetries),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	depth := req.Depth
	if depth == "" {
		depth = DepthBasic
	}
	body, err := json.Marshal(searchBody{
		APIKey:         c.apiKey,
		Query:          req.Query,
		MaxResults:     req.MaxResults,
		SearchDepth:    depth,
		IncludeAnswer:  req.IncludeAnswer,
		IncludeDomains: []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	status, data, err := c.http.PostJSON(ctx, c.baseURL+"/search", body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, detail(data, status))
	case status == http.StatusTooManyRequests || status == 432 || status == 433:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, detail(data, status))
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: %s", ErrFailed, detail(data, status))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFailed, err)
	}
	return &out, nil
}

func detail(data []byte, status int) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Detail.Error != "" {
		return eb.Detail.Error
	}
	return fmt.Sprintf("status %d", status)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
