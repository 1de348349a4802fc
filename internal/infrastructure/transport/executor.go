// Package transport issues logical HTTP calls against the remote API with
// default headers, bearer injection, a per-attempt timeout and bounded retry
// on transient failures.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/coderz/catalog-client/internal/api/metrics"
	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second

	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	maxResponseSize     = 8 << 20 // 8 MB
	maxErrorBody        = 512
)

// Backoff selects how the delay grows between attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffExponential Backoff = "exponential"
)

// Request describes one logical call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient overrides the underlying HTTP client. Its Timeout should be
// zero; the executor applies its own per-attempt timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.client = c }
}

// WithTimeout sets the hard per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRetry sets the retry cap and the delay between attempts.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(e *Executor) {
		if maxRetries >= 0 {
			e.maxRetries = maxRetries
		}
		if delay >= 0 {
			e.retryDelay = delay
		}
	}
}

// WithBackoff selects the backoff policy; the cap and the transient
// classification apply to every policy.
func WithBackoff(b Backoff) Option {
	return func(e *Executor) { e.backoff = b }
}

// WithCircuitBreaker trips after threshold consecutive transient failures and
// fails fast with domain.ErrCircuitOpen until the cool-down elapses.
func WithCircuitBreaker(threshold uint32, coolDown time.Duration) Option {
	return func(e *Executor) {
		if threshold == 0 {
			return
		}
		e.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "catalog-api",
			MaxRequests: 1,
			Timeout:     coolDown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !domain.IsTransient(err)
			},
			OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
				metrics.CircuitBreakerState.Set(float64(to))
			},
		})
	}
}

// WithDefaultHeader adds a header sent on every request unless the caller
// overrides it.
func WithDefaultHeader(key, value string) Option {
	return func(e *Executor) { e.defaults.Set(key, value) }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// Executor issues requests. It is safe for concurrent use.
type Executor struct {
	client     *http.Client
	tokens     ports.TokenSource
	capture    ports.TokenStore
	defaults   http.Header
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	backoff    Backoff
	cb         *gobreaker.CircuitBreaker
	log        zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New builds an Executor that reads the bearer credential from tokens.
// tokens may be nil for unauthenticated clients.
func New(tokens ports.TokenSource, opts ...Option) *Executor {
	e := &Executor{
		client:     &http.Client{},
		tokens:     tokens,
		defaults:   http.Header{},
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		backoff:    BackoffFixed,
		log:        zerolog.Nop(),
		sleep:      sleepContext,
	}
	e.defaults.Set("Content-Type", "application/json")
	e.defaults.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCredentialCapture returns the auth variant of e: a copy that writes any
// token found in a successful response body through to store. It is the only
// path by which a network call mutates the token store.
func (e *Executor) WithCredentialCapture(store ports.TokenStore) *Executor {
	clone := *e
	clone.defaults = e.defaults.Clone()
	clone.capture = store
	return &clone
}

// MaxRetries returns the retry cap.
func (e *Executor) MaxRetries() int { return e.maxRetries }

// Execute performs req and returns the JSON body; an empty body yields `{}`.
// Transient failures are retried internally; only the terminal error surfaces.
func (e *Executor) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	if e.cb == nil {
		return e.executeWithRetry(ctx, req)
	}

	res, err := e.cb.Execute(func() (interface{}, error) {
		return e.executeWithRetry(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", domain.ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

// ExecuteJSON marshals in as the request body (when non-nil) and decodes the
// response into out (when non-nil).
func (e *Executor) ExecuteJSON(ctx context.Context, method, url string, in, out any) error {
	req := Request{Method: method, URL: url}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.Body = body
	}

	data, err := e.Execute(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ParseError{Err: err}
	}
	return nil
}

// Probe issues a GET to url and reports whether it answered with a 2xx
// status. The body does not need to be JSON.
func (e *Executor) Probe(ctx context.Context, url string) error {
	_, err := e.Execute(ctx, Request{Method: http.MethodGet, URL: url})
	var pe *domain.ParseError
	if errors.As(err, &pe) {
		return nil
	}
	return err
}

func (e *Executor) executeWithRetry(ctx context.Context, req Request) (json.RawMessage, error) {
	requestID := uuid.NewString()
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; ; attempt++ {
		data, err := e.attempt(ctx, req, requestID)
		metrics.RequestAttemptsTotal.WithLabelValues(req.Method, outcomeOf(err)).Inc()
		if err == nil {
			if err := e.captureCredential(ctx, data); err != nil {
				return nil, err
			}
			return data, nil
		}

		e.log.Debug().Err(err).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL).
			Int("attempt", attempt+1).
			Msg("request attempt failed")

		if !domain.IsTransient(err) || attempt >= e.maxRetries {
			return nil, err
		}

		delay := e.delayFor(attempt)
		metrics.RequestRetriesTotal.WithLabelValues(outcomeOf(err)).Inc()
		e.log.Warn().Err(err).
			Str("request_id", requestID).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying request")

		if err := e.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("request cancelled: %w", err)
		}
	}
}

func (e *Executor) attempt(ctx context.Context, req Request, requestID string) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: req.URL, Reason: err.Error()}
	}

	if err := e.buildHeaders(ctx, httpReq, req.Header, requestID); err != nil {
		return nil, err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := data
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &domain.HTTPStatusError{Status: resp.StatusCode, Body: string(snippet)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(data) {
		return nil, &domain.ParseError{Err: errors.New("response is not valid JSON")}
	}
	return data, nil
}

// buildHeaders applies defaults, then caller headers, then the bearer
// credential. A caller-supplied Authorization header is always discarded.
func (e *Executor) buildHeaders(ctx context.Context, httpReq *http.Request, caller http.Header, requestID string) error {
	for k, v := range e.defaults {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	for k, v := range caller {
		if http.CanonicalHeaderKey(k) == headerAuthorization {
			continue
		}
		httpReq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	httpReq.Header.Set(headerRequestID, requestID)

	if e.tokens == nil {
		return nil
	}
	cred, err := e.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if cred != nil && cred.Token != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+cred.Token)
	}
	return nil
}

func (e *Executor) captureCredential(ctx context.Context, data json.RawMessage) error {
	if e.capture == nil {
		return nil
	}
	var payload struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		return nil
	}
	cred := domain.Credential{Token: payload.Token, Role: domain.NormalizeRole(payload.Role)}
	if err := e.capture.Set(ctx, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	e.log.Info().Str("role", cred.Role).Msg("credential stored")
	return nil
}

func (e *Executor) delayFor(attempt int) time.Duration {
	if e.backoff == BackoffExponential {
		return e.retryDelay * time.Duration(1<<uint(attempt))
	}
	return e.retryDelay
}

// classify maps a transport failure onto the error taxonomy. Cancellation of
// the caller's context is returned as-is and never retried.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TimeoutError{Err: err}
	}
	return &domain.NetworkUnreachableError{Err: err}
}

func outcomeOf(err error) string {
	var (
		te *domain.TimeoutError
		ne *domain.NetworkUnreachableError
		he *domain.HTTPStatusError
		pe *domain.ParseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &ne):
		return "unreachable"
	case errors.As(err, &he):
		return "http_error"
	case errors.As(err, &pe):
		return "parse_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
