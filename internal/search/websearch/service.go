// Package websearch runs a course-aware web search and renders the ranked
// results for the student.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"prism-workers/internal/common/metrics"
	"prism-workers/internal/models"
	"prism-workers/internal/search/ranker"
	"prism-workers/internal/search/tavily"
)

const (
	DefaultCount = 5

	NotConfiguredMessage = "Web search is not available. Please configure the web search API key."
	AuthFailedMessage    = "Web search is not available. Please check your web search API key configuration."
	RateLimitedMessage   = "Web search rate limit exceeded. Please try again later."
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Searcher interface {
	Search(ctx context.Context, req tavily.Request) (*tavily.Response, error)
	Configured() bool
}

type Result struct {
	Text          string                `json:"results"`
	Citations     []models.WebCitation  `json:"citations"`
	Ranked        []models.SearchResult `json:"rawResults,omitempty"`
	TimeSensitive bool                  `json:"timeSensitive"`
	Error         string                `json:"error,omitempty"`
}

type Service struct {
	searcher Searcher
	cache    *cache.Cache
	logger   Logger
	now      func() time.Time
}

// New builds a Service. Provider responses are kept for ttl; a ttl of 0
// disables caching.
func New(s Searcher, ttl time.Duration, log Logger) *Service {
	svc := &Service{searcher: s, logger: log, now: time.Now}
	if ttl > 0 {
		svc.cache = cache.New(ttl, 2*ttl)
	}
	return svc
}

// Plan is the provider request derived from a student query.
type Plan struct {
	Request       tavily.Request
	TimeSensitive bool
}

// PlanQuery decides the provider query, pool size and depth. Questions
// about current events drop the course name and add today's month and year.
func PlanQuery(query, course string, count int, now time.Time) Plan {
	if ranker.IsTimeSensitive(query, now) {
		return Plan{
			Request: tavily.Request{
				Query:         query + " " + strconv.Itoa(now.Year()) + " " + now.Month().String(),
				MaxResults:    count * 2,
				Depth:         tavily.DepthAdvanced,
				IncludeAnswer: true,
			},
			TimeSensitive: true,
		}
	}
	return Plan{
		Request: tavily.Request{
			Query:         query + " " + course,
			MaxResults:    count,
			Depth:         tavily.DepthBasic,
			IncludeAnswer: true,
		},
	}
}

// Search never fails: provider problems come back as a readable message
// with Error set.
func (s *Service) Search(ctx context.Context, query, course string, count int) Result {
	if count <= 0 {
		count = DefaultCount
	}
	if !s.searcher.Configured() {
		s.logger.Warn("web search requested without an API key", nil)
		return Result{Text: NotConfiguredMessage, Citations: []models.WebCitation{}, Error: tavily.ErrNotConfigured.Error()}
	}

	now := s.now()
	plan := PlanQuery(query, course, count, now)

	resp, err := s.fetch(ctx, plan.Request)
	if err != nil {
		s.logger.Error("web search failed", map[string]interface{}{
			"query": plan.Request.Query,
			"error": err,
		})
		return Result{
			Text:          FailureMessage(err),
			Citations:     []models.WebCitation{},
			TimeSensitive: plan.TimeSensitive,
			Error:         err.Error(),
		}
	}

	ranked := ranker.Rank(resp.Results, resp.Answer, plan.TimeSensitive, count, now)
	metrics.WebSearchResults.WithLabelValues(strconv.FormatBool(plan.TimeSensitive)).Add(float64(len(ranked)))

	s.logger.Info("web search finished", map[string]interface{}{
		"query":         plan.Request.Query,
		"depth":         plan.Request.Depth,
		"timeSensitive": plan.TimeSensitive,
		"results":       len(ranked),
	})

	if len(ranked) == 0 {
		return Result{
			Text:          fmt.Sprintf("No search results found for '%s'. Please try rephrasing your question.", query),
			Citations:     []models.WebCitation{},
			TimeSensitive: plan.TimeSensitive,
		}
	}

	return Result{
		Text:          ranker.Format(ranked),
		Citations:     ranker.Citations(ranked),
		Ranked:        ranked,
		TimeSensitive: plan.TimeSensitive,
	}
}

func (s *Service) fetch(ctx context.Context, req tavily.Request) (*tavily.Response, error) {
	key := fmt.Sprintf("%s|%d|%s", req.Query, req.MaxResults, req.Depth)
	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			return v.(*tavily.Response), nil
		}
	}

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, resp, cache.DefaultExpiration)
	}
	return resp, nil
}

// FailureMessage turns a provider error into text for the student.
func FailureMessage(err error) string {
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, tavily.ErrNotConfigured):
		return NotConfiguredMessage
	case errors.Is(err, tavily.ErrAuthFailed),
		strings.Contains(lower, "api_key"), strings.Contains(lower, "authentication"):
		return AuthFailedMessage
	case errors.Is(err, tavily.ErrRateLimited),
		strings.Contains(lower, "rate limit"), strings.Contains(lower, "quota"):
		return RateLimitedMessage
	default:
		return fmt.Sprintf("Error performing search: %v. Please check your web search API configuration.", err)
	}
}
