package subscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/circuitbreaker"
	"github.com/ajuna-network/affiliate-fix/internal/metrics"
	"github.com/ajuna-network/affiliate-fix/internal/ratelimit"
	"github.com/ajuna-network/affiliate-fix/internal/retry"
)

const (
	pathEvents = "/api/v2/scan/events"
	pathEvent  = "/api/scan/event"

	maxErrorBody = 512
)

type Options struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	RPS         float64
	Burst       int
	MaxAttempts int
	Logger      *slog.Logger

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// BreakerThreshold consecutive transient failures stop further calls
	// for BreakerOpenTimeout.
	BreakerThreshold   int
	BreakerOpenTimeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *ratelimit.Limiter
	retry      retry.Policy
	breaker    *circuitbreaker.Breaker
	logger     *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		logger:     opts.Logger.With("component", "subscan"),
	}
	if opts.RPS > 0 {
		c.limiter = ratelimit.NewLimiter(opts.RPS, opts.Burst, "subscan")
	}
	c.retry = retry.Policy{
		MaxAttempts:    opts.MaxAttempts,
		BackoffInitial: opts.BackoffInitial,
		BackoffMax:     opts.BackoffMax,
	}
	c.breaker = circuitbreaker.New(circuitbreaker.Config{
		Name:             "subscan",
		FailureThreshold: opts.BreakerThreshold,
		OpenTimeout:      opts.BreakerOpenTimeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.BreakerTransitionsTotal.WithLabelValues(name, to.String()).Inc()
			c.logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})
	return c
}

// ListEvents returns one page of events matching q.
func (c *Client) ListEvents(ctx context.Context, q EventsQuery) (*EventsPage, error) {
	var page EventsPage
	if err := c.post(ctx, pathEvents, q, &page); err != nil {
		return nil, fmt.Errorf("list events %s page %d: %w", q.EventID, q.Page, err)
	}
	return &page, nil
}

// GetEvent returns the decoded event at index ("block-position").
func (c *Client) GetEvent(ctx context.Context, index string) (*Event, error) {
	var event Event
	payload := map[string]string{"event_index": index}
	if err := c.post(ctx, pathEvent, payload, &event); err != nil {
		return nil, fmt.Errorf("get event %s: %w", index, err)
	}
	return &event, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	policy := c.retry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.ClientRetriesTotal.WithLabelValues("subscan", path).Inc()
		c.logger.Warn("subscan request failed, retrying",
			"path", path,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	return retry.Do(ctx, policy, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.breaker.Execute(func() error {
			started := time.Now()
			err := c.postOnce(ctx, path, body, out)
			ratelimit.RecordCall("subscan", path, started, err)
			return err
		})
	})
}

func (c *Client) postOnce(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.Terminal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Transient(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(respBody)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return &HTTPError{Path: path, StatusCode: resp.StatusCode, Body: snippet}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return retry.Terminal(fmt.Errorf("unmarshal response: %w", err))
	}
	if env.Code != 0 {
		return &APIError{Path: path, Code: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return retry.Terminal(fmt.Errorf("subscan %s: empty data", path))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return retry.Terminal(fmt.Errorf("unmarshal data: %w", err))
	}
	return nil
}
