package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

// Storage keys shared with earlier releases of the client.
const (
	keyToken = "jwtToken"
	keyRole  = "userRole"
)

// TokenStore holds the active credential in a KeyValueStore. Every mutation is
// written through before returning.
type TokenStore struct {
	mu sync.Mutex
	kv ports.KeyValueStore
}

// NewTokenStore creates a TokenStore over kv.
func NewTokenStore(kv ports.KeyValueStore) *TokenStore {
	return &TokenStore{kv: kv}
}

// Get returns the stored credential, or nil when none is present.
func (s *TokenStore) Get(ctx context.Context) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok, err := s.kv.Get(ctx, keyToken)
	if err != nil {
		return nil, fmt.Errorf("token store: %w", err)
	}
	if !ok || token == "" {
		return nil, nil
	}
	role, _, err := s.kv.Get(ctx, keyRole)
	if err != nil {
		return nil, fmt.Errorf("token store: %w", err)
	}
	return &domain.Credential{Token: token, Role: domain.NormalizeRole(role)}, nil
}

// Set replaces the stored credential.
func (s *TokenStore) Set(ctx context.Context, cred domain.Credential) error {
	if cred.Token == "" {
		return &domain.ValidationError{Field: "token", Reason: "is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, keyToken, cred.Token); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	if err := s.kv.Set(ctx, keyRole, domain.NormalizeRole(cred.Role)); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}

// Clear removes the stored credential.
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, keyToken, keyRole); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}
