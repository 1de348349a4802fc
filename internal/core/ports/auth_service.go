package ports

import (
	"context"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// AuthService defines the authentication operations exposed to the CLI.
type AuthService interface {
	Login(ctx context.Context, in domain.LoginInput) domain.Result[domain.Session]
	Register(ctx context.Context, in domain.RegisterInput) domain.Result[domain.Session]
	Logout(ctx context.Context) domain.Result[struct{}]
	Current(ctx context.Context) domain.Result[domain.Session]
}
