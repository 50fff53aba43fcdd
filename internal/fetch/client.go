package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

const (
	// RequestIDHeader carries one id across every attempt of a logical call.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes  = 32 << 20
	maxErrorBytes = 512
)

// Request describes one logical call. Body, when not nil, is sent as JSON;
// a []byte body is sent as is.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
	RequestID  string
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Client is an HTTP client with bounded exponential-backoff retry.
type Client struct {
	http    *http.Client
	policy  RetryPolicy
	limiter *rate.Limiter
	sleep   Sleeper

	logger  *logs.Logger
	metrics *metrics.Registry
}

// NewClient creates a client from cfg. logger and reg may be nil.
func NewClient(cfg Config, logger *logs.Logger, reg *metrics.Registry) *Client {
	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		policy:  cfg.Retry,
		sleep:   SleepContext,
		logger:  logger.With("fetch"),
		metrics: reg,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// SetSleeper replaces the backoff sleeper.
func (c *Client) SetSleeper(s Sleeper) {
	c.sleep = s
}

// SetHTTPClient replaces the underlying transport client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.http = hc
}

// Policy returns the client-wide retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Do performs req, retrying retryable failures per the client policy as
// adjusted by opts. A 4xx response is returned after one attempt.
func (c *Client) Do(ctx context.Context, req Request, opts ...Option) (*Response, error) {
	policy := c.policy
	for _, opt := range opts {
		opt(&policy)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var resp *Response
	attempts, err := Retry(ctx, policy, c.sleep,
		func(attempt int) error {
			r, err := c.attempt(ctx, method, req.URL, req.Header, payload, requestID)
			if err != nil {
				c.logger.Debugf("attempt %d %s %s failed: %v", attempt, method, req.URL, err)
				return err
			}
			resp = r
			return nil
		},
		func(attempt int, delay time.Duration, err error) {
			c.metrics.Inc(metrics.FetchRetriesTotal)
			c.logger.Warnf("attempt %d/%d %s %s failed: %v; retrying in %s",
				attempt, max(policy.MaxRetries, 1), method, req.URL, err, delay)
		},
	)

	if err != nil {
		switch {
		case IsClientError(err):
			c.metrics.Inc(metrics.FetchClientErrorsTotal)
			c.logger.Warnf("%s %s: client error, not retrying: %v", method, req.URL, err)
		case IsExhausted(err):
			c.metrics.Inc(metrics.FetchFailuresTotal)
			c.logger.Warnf("%s %s: %v", method, req.URL, err)
		default:
			c.metrics.Inc(metrics.FetchFailuresTotal)
			c.logger.Warnf("%s %s: gave up after %d attempts: %v", method, req.URL, attempts, err)
		}
		return nil, err
	}

	c.metrics.Inc(metrics.FetchSuccessTotal)
	if attempts > 1 {
		c.logger.Infof("%s %s succeeded after %d retries", method, req.URL, attempts-1)
	}
	resp.Attempts = attempts
	resp.RequestID = requestID
	return resp, nil
}

// GetJSON is Do for a GET whose body is decoded into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any, opts ...Option) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: url}, opts...)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}

func (c *Client) attempt(
	ctx context.Context,
	method, url string,
	header http.Header,
	payload []byte,
	requestID string,
) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	c.metrics.Inc(metrics.FetchAttemptsTotal)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	if payload != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet := data
		if len(snippet) > maxErrorBytes {
			snippet = snippet[:maxErrorBytes]
		}
		return nil, &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       string(snippet),
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return data, nil
	}
}
