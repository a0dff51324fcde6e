package scryfall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/platform/metrics"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const (
	searchPath = "/cards/search"

	defaultBackoff = 250 * time.Millisecond

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 16 << 20
)

// Searcher resolves a card name to the raw search result body.
type Searcher interface {
	SearchPrints(ctx context.Context, name string) ([]byte, error)
}

// Client talks to the card-data search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the base delay of the exponential backoff.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client from configuration.
func NewClient(cfg config.ScryfallConfig, opts ...Option) *Client {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		maxRetries: cfg.MaxRetries,
		backoff:    defaultBackoff,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "scryfall_client"))
	return c
}

// SearchURL builds the exact-name, unique-prints search URL for name.
func (c *Client) SearchURL(name string) string {
	q := url.Values{}
	q.Set("q", `!"`+name+`"`)
	q.Set("unique", "prints")
	return c.baseURL + searchPath + "?" + q.Encode()
}

// SearchPrints fetches every print of the card named exactly name and
// returns the response body unmodified.
func (c *Client) SearchPrints(ctx context.Context, name string) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	start := time.Now()
	defer c.metrics.ObserveFetch(start)

	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.backoff))

	attempt := 0
	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := c.doSearch(ctx, name)
		if err == nil {
			body = b
			return nil
		}
		if isRetryable(err) && ctx.Err() == nil {
			log.Debug("retrying card search",
				slog.String("card", name),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var te *transportError
		if errors.As(err, &te) {
			err = fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return nil, fmt.Errorf("search for %q failed after %d attempt(s): %w", name, attempt, err)
	}
	return body, nil
}

func (c *Client) doSearch(ctx context.Context, name string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}
	return body, nil
}

func statusError(resp *http.Response) error {
	var sentinel error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		sentinel = ErrTransient
	default:
		sentinel = ErrBadStatus
	}
	return &StatusError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Err: sentinel}
}

// transportError marks network-level failures as retryable.
type transportError struct{ err error }

func (e *transportError) Error() string { return "transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var te *transportError
	return errors.Is(err, ErrTransient) || errors.As(err, &te)
}
