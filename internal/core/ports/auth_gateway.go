package ports

import (
	"context"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// AuthGateway performs raw login and register calls. A returned credential
// has already been written to the token store by the transport.
type AuthGateway interface {
	Login(ctx context.Context, in domain.LoginInput) (*domain.Credential, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.Credential, error)
}
