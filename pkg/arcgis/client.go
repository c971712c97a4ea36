// Package arcgis queries ESRI-style feature services: spatial filter
// construction, offset pagination with pacing, retry on transient upstream
// failures, and decoding of the JSON geometry envelope into go-geom values.
package arcgis

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client runs feature queries against a remote service.
type Client interface {
	// QueryAll follows offset pagination until the service reports no more
	// pages or the record cap is reached. On failure it returns the features
	// accumulated before the failure together with the error, so callers can
	// treat a partially delivered result as usable data.
	QueryAll(ctx context.Context, spec QuerySpec) (Result, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithLimiter sets the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *client) {
		c.limiter = l
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		c.userAgent = ua
	}
}

// WithPageSize sets the resultRecordCount requested per page.
func WithPageSize(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageDelay sets the pacing delay inserted between pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *client) {
		c.pageDelay = d
	}
}

// WithMaxRecords sets the safety cap on records accumulated per query.
func WithMaxRecords(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.maxRecords = n
		}
	}
}

// WithMaxRetries sets the attempt count for transient upstream failures.
func WithMaxRetries(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the initial retry backoff.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

type client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	userAgent    string
	pageSize     int
	pageDelay    time.Duration
	maxRecords   int
	maxRetries   int
	retryBackoff time.Duration
}

// NewClient creates a feature-service client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(10, 10),
		userAgent:    "geoenrich/1.0",
		pageSize:     1000,
		pageDelay:    100 * time.Millisecond,
		maxRecords:   100000,
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryAll implements Client.
func (c *client) QueryAll(ctx context.Context, spec QuerySpec) (Result, error) {
	var res Result
	offset := 0

	for {
		page, err := c.fetchPage(ctx, spec, offset)
		if err != nil {
			return res, err
		}

		res.Features = append(res.Features, page.Features...)
		res.Pages++

		if page.Error != nil {
			// The service reported an error in-band. Features that arrived
			// anyway are kept, but pagination cannot continue cleanly.
			return res, eris.Wrap(page.Error, "arcgis: query")
		}

		if len(page.Features) < c.pageSize && !page.ExceededTransferLimit {
			return res, nil
		}

		if len(res.Features) >= c.maxRecords {
			res.CapReached = true
			zap.L().Warn("arcgis: record cap reached, returning partial result",
				zap.String("url", spec.BaseURL),
				zap.Int("layer", spec.LayerID),
				zap.Int("records", len(res.Features)),
			)
			return res, nil
		}

		offset += len(page.Features)

		if err := c.pace(ctx); err != nil {
			return res, err
		}
	}
}

// fetchPage requests a single page and decodes its envelope.
func (c *client) fetchPage(ctx context.Context, spec QuerySpec, offset int) (*Page, error) {
	reqURL := spec.pageURL(c.pageSize, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("arcgis: unexpected status %d from %s", resp.StatusCode, spec.BaseURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: read response")
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, eris.Wrap(err, "arcgis: decode response")
	}
	return &page, nil
}

func (c *client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "arcgis: rate limiter wait")
		}

		cloned := req.Clone(ctx)
		resp, err := c.httpClient.Do(cloned)
		if err != nil {
			lastErr = err
			zap.L().Warn("arcgis: request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("arcgis: http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("arcgis: upstream unavailable, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}

	return nil, eris.Wrap(lastErr, "arcgis: all retries exhausted")
}

func (c *client) backoff(ctx context.Context, attempt int) {
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(c.retryBackoff) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// pace inserts the inter-page delay that keeps pagination polite.
func (c *client) pace(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.pageDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "arcgis: pacing wait")
	case <-t.C:
		return nil
	}
}
