package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/infrastructure/db/memory"
	"github.com/coderz/catalog-client/internal/infrastructure/endpoint"
	"github.com/coderz/catalog-client/internal/infrastructure/remote"
	"github.com/coderz/catalog-client/internal/infrastructure/transport"
	"github.com/coderz/catalog-client/internal/testutil/fakeapi"
)

type stack struct {
	srv      *fakeapi.Server
	tokens   *TokenStore
	products *ProductService
	auth     *AuthService
	editor   *CellEditor
}

func newStack(t *testing.T, opts ...fakeapi.Option) *stack {
	t.Helper()
	srv := fakeapi.New(opts...)
	t.Cleanup(srv.Close)

	resolver, err := endpoint.New(endpoint.Config{BaseURL: srv.BaseURL(), Hostname: "localhost"})
	if err != nil {
		t.Fatalf("endpoint.New: %v", err)
	}
	tokens := NewTokenStore(memory.NewStore())
	exec := transport.New(tokens,
		transport.WithTimeout(200*time.Millisecond),
		transport.WithRetry(transport.DefaultMaxRetries, 10*time.Millisecond),
	)
	msg := NewMessages("en")

	products := NewProductService(remote.NewProductGateway(exec, resolver, nil), nil, msg, zerolog.Nop())
	auth := NewAuthService(remote.NewAuthGateway(exec.WithCredentialCapture(tokens), resolver), tokens, msg, zerolog.Nop())
	return &stack{
		srv:      srv,
		tokens:   tokens,
		products: products,
		auth:     auth,
		editor:   NewCellEditor(products, msg, zerolog.Nop()),
	}
}

func TestIntegration_TokenLifecycle(t *testing.T) {
	s := newStack(t, fakeapi.WithAuthRequired())
	ctx := context.Background()
	if err := s.srv.AddUser("admin@example.com", "secret1", domain.RoleAdmin); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	if res := s.products.List(ctx); res.Success || res.Error != "HTTP error! status: 401" {
		t.Fatalf("expected 401 before login, got %+v", res)
	}

	login := s.auth.Login(ctx, domain.LoginInput{Email: "admin@example.com", Password: "secret1"})
	if !login.Success || login.Data.Role != domain.RoleAdmin {
		t.Fatalf("login failed: %+v", login)
	}
	if res := s.products.List(ctx); !res.Success {
		t.Fatalf("expected bearer to be accepted, got %+v", res)
	}

	s.auth.Logout(ctx)
	if res := s.products.List(ctx); res.Success {
		t.Fatalf("expected request without bearer to fail after logout")
	}
}

func TestIntegration_TransientFailuresAreRetried(t *testing.T) {
	s := newStack(t)
	s.srv.Seed(fakeapi.NewRecord("Pen", 1.5, 20))

	// Two hung attempts time out and are retried; the third succeeds.
	s.srv.FailNext(2, 0, time.Second)
	res := s.products.List(context.Background())
	if !res.Success || len(*res.Data) != 1 {
		t.Fatalf("expected success after retries, got %+v", res)
	}
	if hits := s.srv.Hits(http.MethodGet, "/api/Products"); hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestIntegration_HTTPErrorsAreNotRetried(t *testing.T) {
	s := newStack(t)
	s.srv.FailNext(1, http.StatusInternalServerError, 0)

	res := s.products.List(context.Background())
	if res.Success || res.Error != "HTTP error! status: 500" {
		t.Fatalf("expected 500 envelope, got %+v", res)
	}
	if hits := s.srv.Hits(http.MethodGet, "/api/Products"); hits != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
}

func TestIntegration_CellEditRoundTrip(t *testing.T) {
	s := newStack(t)
	seed := fakeapi.NewRecord("Pen", 1.5, 20)
	seed.CreatedAt = "2024-01-01T00:00:00Z"
	ids := s.srv.Seed(seed)

	cell := domain.NewCell(ids[0], domain.FieldQuantity, 20)
	if _, err := s.editor.Blur(context.Background(), cell, "7"); err != nil {
		t.Fatalf("Blur: %v", err)
	}
	stored, _ := s.srv.Stored(ids[0])
	if stored.Quantity != 7 || stored.Price != 1.5 || stored.CreatedAt != seed.CreatedAt {
		t.Fatalf("unexpected stored record %+v", stored)
	}
	if s.srv.Hits(http.MethodGet, "/api/Products/:id") != 1 || s.srv.Hits(http.MethodPut, "/api/Products/:id") != 1 {
		t.Fatalf("expected one fetch and one write")
	}
}
