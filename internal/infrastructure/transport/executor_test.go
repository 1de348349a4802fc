package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubTokenStore struct {
	mu   sync.Mutex
	cred *domain.Credential
}

func (s *stubTokenStore) Get(context.Context) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, nil
	}
	c := *s.cred
	return &c, nil
}

func (s *stubTokenStore) Set(_ context.Context, c domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &c
	return nil
}

func (s *stubTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type dialError struct{}

func (dialError) Error() string   { return "dial tcp 127.0.0.1:1: connect: connection refused" }
func (dialError) Timeout() bool   { return false }
func (dialError) Temporary() bool { return false }

func failingClient(calls *int32) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(calls, 1)
		return nil, dialError{}
	})}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestExecute_HeadersAndBearer(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tokens := &stubTokenStore{}
	exec := New(tokens, WithRetry(0, 0))

	caller := http.Header{}
	caller.Set("Content-Type", "text/plain")
	caller.Set("Authorization", "Bearer forged")
	caller.Set("X-Trace", "abc")

	if _, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Header: caller}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Get("Content-Type") != "text/plain" {
		t.Fatalf("caller header should win, got %q", got.Get("Content-Type"))
	}
	if got.Get("Accept") != "application/json" {
		t.Fatalf("default Accept header missing")
	}
	if got.Get("X-Trace") != "abc" {
		t.Fatalf("caller header missing")
	}
	if got.Get("Authorization") != "" {
		t.Fatalf("caller Authorization must be dropped, got %q", got.Get("Authorization"))
	}
	if got.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	_ = tokens.Set(context.Background(), domain.Credential{Token: "t1", Role: "Admin"})
	if _, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Header: caller}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Get("Authorization") != "Bearer t1" {
		t.Fatalf("expected bearer t1, got %q", got.Get("Authorization"))
	}

	_ = tokens.Clear(context.Background())
	if _, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Get("Authorization") != "" {
		t.Fatalf("expected no Authorization after clear, got %q", got.Get("Authorization"))
	}
}

func TestExecute_EmptyBodyYieldsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	data, err := New(nil).Execute(context.Background(), Request{Method: http.MethodDelete, URL: srv.URL})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(data) != "{}" {
		t.Fatalf("expected {}, got %s", data)
	}
}

func TestExecute_NonTransientFailuresAreNotRetried(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, `{"error":"missing"}`, func(err error) bool {
			var he *domain.HTTPStatusError
			return errors.As(err, &he) && he.Status == http.StatusNotFound
		}},
		{"server error", http.StatusInternalServerError, ``, func(err error) bool {
			return domain.StatusOf(err) == http.StatusInternalServerError
		}},
		{"malformed json", http.StatusOK, `{"name":`, func(err error) bool {
			var pe *domain.ParseError
			return errors.As(err, &pe)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := New(nil, WithRetry(3, time.Millisecond)).Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if domain.IsTransient(err) {
				t.Fatalf("error must not be transient: %v", err)
			}
			if hits != 1 {
				t.Fatalf("expected exactly 1 attempt (0 retries), got %d", hits)
			}
		})
	}
}

func TestExecute_TimeoutRetriedWithDelay(t *testing.T) {
	const delay = 30 * time.Millisecond
	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		n := len(times)
		mu.Unlock()
		if n < 3 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	exec := New(nil, WithTimeout(50*time.Millisecond), WithRetry(3, delay))
	data, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(data) != `{"id":1}` {
		t.Fatalf("unexpected body %s", data)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < delay {
			t.Fatalf("attempt %d started %v after previous, want >= %v", i+1, gap, delay)
		}
	}
}

func TestExecute_TransientCapSurfacesLastError(t *testing.T) {
	var calls int32
	exec := New(nil, WithHTTPClient(failingClient(&calls)), WithRetry(3, time.Millisecond))

	_, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: "http://catalog.invalid/api"})
	var ne *domain.NetworkUnreachableError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkUnreachableError, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 1 attempt + 3 retries, got %d calls", calls)
	}
}

func TestExecute_ExponentialBackoffKeepsCap(t *testing.T) {
	var calls int32
	exec := New(nil, WithHTTPClient(failingClient(&calls)), WithRetry(2, time.Millisecond), WithBackoff(BackoffExponential))

	var delays []time.Duration
	exec.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	if _, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: "http://catalog.invalid"}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 || delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Fatalf("unexpected delays: %v", delays)
	}
}

func TestExecute_CancelledContextIsNotRetried(t *testing.T) {
	var calls int32
	exec := New(nil, WithHTTPClient(failingClient(&calls)), WithRetry(3, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	exec.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := exec.Execute(ctx, Request{Method: http.MethodGet, URL: "http://catalog.invalid"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestExecute_CredentialCapture(t *testing.T) {
	body := `{"token":"t1","role":"Admin"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	store := &stubTokenStore{}
	base := New(store, WithRetry(0, 0))

	if _, err := base.Execute(context.Background(), Request{Method: http.MethodPost, URL: srv.URL}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cred, _ := store.Get(context.Background()); cred != nil {
		t.Fatalf("plain executor must not capture credentials, got %+v", cred)
	}

	auth := base.WithCredentialCapture(store)
	if _, err := auth.Execute(context.Background(), Request{Method: http.MethodPost, URL: srv.URL}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	cred, _ := store.Get(context.Background())
	if cred == nil || cred.Token != "t1" || cred.Role != "Admin" {
		t.Fatalf("unexpected credential: %+v", cred)
	}

	body = `{"token":"t2"}`
	if _, err := auth.Execute(context.Background(), Request{Method: http.MethodPost, URL: srv.URL}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	cred, _ = store.Get(context.Background())
	if cred.Token != "t2" || cred.Role != domain.RoleGuest {
		t.Fatalf("expected guest role default, got %+v", cred)
	}
}

func TestExecute_CircuitBreakerOpens(t *testing.T) {
	var calls int32
	exec := New(nil,
		WithHTTPClient(failingClient(&calls)),
		WithRetry(0, 0),
		WithCircuitBreaker(2, time.Minute),
	)

	for i := 0; i < 2; i++ {
		_, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: "http://catalog.invalid"})
		if !domain.IsTransient(err) {
			t.Fatalf("attempt %d: expected transient error, got %v", i, err)
		}
	}

	_, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: "http://catalog.invalid"})
	if !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("open breaker must not reach the transport, got %d calls", calls)
	}
}

func TestExecute_HTTPErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	exec := New(nil, WithRetry(0, 0), WithCircuitBreaker(1, time.Minute))
	for i := 0; i < 3; i++ {
		_, err := exec.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
		if domain.StatusOf(err) != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400, got %v", i, err)
		}
	}
}
