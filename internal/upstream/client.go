// Package upstream talks to the streaming service's public browse API.
package upstream

import (
	"context"
	"errors"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/structures"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
)

const (
	DefaultTimeout = 20 * time.Second

	// MaxResponseSize bounds a single page body (32MB).
	MaxResponseSize = 32 * 1024 * 1024

	UserAgent = "filmsync/1.0"
)

type ClientInterface interface {
	FetchPage(ctx context.Context, country string, page int) (*models.FilmPage, error)
}

type Client struct {
	http   *http.Client
	conf   structures.UpstreamConfig
	logger providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) ClientInterface {
	timeout := conf.Upstream.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	upstream := conf.Upstream
	if upstream.Sort == "" {
		upstream.Sort = "popularity_quality_score"
	}
	if upstream.Language == "" {
		upstream.Language = "en"
	}
	if upstream.Client == "" {
		upstream.Client = "web"
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		conf:   upstream,
		logger: logger,
	}
}

func (c *Client) pageURL(page int) (string, error) {
	u, err := url.Parse(c.conf.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("sort", c.conf.Sort)
	if c.conf.PlayableOnly {
		q.Set("playable", "true")
	}
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage returns one page for one country. Transport errors, 429 and 5xx
// answers are retried with exponential backoff up to upstream.maxRetries
// extra attempts; anything else fails the page at once.
func (c *Client) FetchPage(ctx context.Context, country string, page int) (*models.FilmPage, error) {
	target, err := c.pageURL(page)
	if err != nil {
		return nil, &PageFetchError{Country: country, Page: page, Err: err}
	}

	policy := backoff.NewExponentialBackOff()
	if c.conf.RetryInterval > 0 {
		policy.InitialInterval = c.conf.RetryInterval
	}

	attempt := 0
	operation := func() (*models.FilmPage, error) {
		attempt++
		result, err := c.get(ctx, target, country)
		if err == nil {
			return result, nil
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		c.logger.Warnf(providers.TypeUpstream, "%s page %d attempt %d failed: %s", country, page, attempt, err)
		return nil, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(max(c.conf.MaxRetries, 0)+1)),
	)
	if err != nil {
		return nil, &PageFetchError{Country: country, Page: page, Err: err}
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, target, country string) (*models.FilmPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.conf.Language)
	req.Header.Set("CLIENT", c.conf.Client)
	req.Header.Set("CLIENT-COUNTRY", country)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: target, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}

	var page models.FilmPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &page, nil
}
