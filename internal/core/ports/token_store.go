package ports

import (
	"context"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// TokenSource yields the active credential, or nil when unauthenticated.
type TokenSource interface {
	Get(ctx context.Context) (*domain.Credential, error)
}

// TokenStore is the process-wide credential holder.
type TokenStore interface {
	TokenSource
	Set(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}
