// Package fakeapi is an in-process stand-in for the catalog backend used by
// tests. It speaks the same routes and JSON shapes as the real service and
// can inject faults.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const defaultSecret = "fakeapi-secret"

// Option configures a Server.
type Option func(*Server)

// WithAuthRequired protects the product routes with bearer authentication and
// restricts deletes to admins.
func WithAuthRequired() Option {
	return func(s *Server) { s.authRequired = true }
}

// WithoutRole makes auth responses omit the role field.
func WithoutRole() Option {
	return func(s *Server) { s.omitRole = true }
}

// WithEmptyWrites makes PUT answer 204 with no body.
func WithEmptyWrites() Option {
	return func(s *Server) { s.emptyWrites = true }
}

// WithRejectCreate makes POST /Products answer 400 for inputs matching fn.
func WithRejectCreate(fn func(name string, price float64, quantity int) bool) Option {
	return func(s *Server) { s.rejectCreate = fn }
}

// WithLogger sets the logger used by the error handler.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

type fault struct {
	status int
	delay  time.Duration
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server
	Echo *echo.Echo

	secret       string
	authRequired bool
	omitRole     bool
	emptyWrites  bool
	rejectCreate func(string, float64, int) bool
	log          zerolog.Logger

	mu       sync.Mutex
	products map[int]*Record
	nextID   int
	users    map[string]*user
	faults   []fault
	hits     map[string]int
}

// New starts a fake backend. Call Close when done.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   defaultSecret,
		log:      zerolog.Nop(),
		products: make(map[int]*Record),
		nextID:   1,
		users:    make(map[string]*user),
		hits:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Echo = s.newRouter()
	s.Server = httptest.NewServer(s.Echo)
	return s
}

// BaseURL is the API root, e.g. http://127.0.0.1:port/api.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// FailNext makes the next n requests answer with status. A status of 0
// hangs the request for delay instead, which clients observe as a timeout.
func (s *Server) FailNext(n, status int, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.faults = append(s.faults, fault{status: status, delay: delay})
	}
}

// Hits returns how many requests reached method+path, e.g. "GET /api/Products/:id".
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = newHTTPErrorHandler(s.log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(s.countHits)
	e.Use(s.injectFaults)

	api := e.Group("/api")
	api.POST("/Auth/register", s.register)
	api.POST("/Auth/login", s.login)

	products := api.Group("/Products")
	if s.authRequired {
		products.Use(auth(s.secret))
	}
	products.GET("", s.listProducts)
	products.POST("", s.createProduct)
	products.GET("/:id", s.getProduct)
	products.PUT("/:id", s.updateProduct)
	if s.authRequired {
		products.DELETE("/:id", s.deleteProduct, rbac(roleAdmin))
	} else {
		products.DELETE("/:id", s.deleteProduct)
	}

	return e
}

func (s *Server) countHits(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.hits[c.Request().Method+" "+c.Path()]++
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) injectFaults(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		var f *fault
		if len(s.faults) > 0 {
			f = &s.faults[0]
			s.faults = s.faults[1:]
		}
		s.mu.Unlock()

		if f == nil {
			return next(c)
		}
		if f.status == 0 {
			select {
			case <-c.Request().Context().Done():
			case <-time.After(f.delay):
			}
			return c.NoContent(http.StatusGatewayTimeout)
		}
		return echo.NewHTTPError(f.status, http.StatusText(f.status))
	}
}
