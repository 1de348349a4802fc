package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/infrastructure/endpoint"
	"github.com/coderz/catalog-client/internal/infrastructure/transport"
)

var errMissingToken = errors.New("login response carried no token")

// AuthGateway talks to the Auth endpoints. exec must be the credential
// capturing variant of the executor so a successful response lands in the
// token store before the gateway returns.
type AuthGateway struct {
	exec     Executor
	resolver URLResolver
}

func NewAuthGateway(exec Executor, resolver URLResolver) *AuthGateway {
	return &AuthGateway{exec: exec, resolver: resolver}
}

func (g *AuthGateway) Login(ctx context.Context, in domain.LoginInput) (*domain.Credential, error) {
	cred, err := g.post(ctx, endpoint.KeyLogin, in)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, &domain.ParseError{Err: errMissingToken}
	}
	return cred, nil
}

// Register creates an account. Servers that do not sign the user in on
// registration return no credential.
func (g *AuthGateway) Register(ctx context.Context, in domain.RegisterInput) (*domain.Credential, error) {
	return g.post(ctx, endpoint.KeyRegister, in)
}

func (g *AuthGateway) post(ctx context.Context, key endpoint.Key, payload any) (*domain.Credential, error) {
	url, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	data, err := g.exec.Execute(ctx, transport.Request{Method: http.MethodPost, URL: url, Body: body})
	if err != nil {
		return nil, err
	}

	var cred domain.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, &domain.ParseError{Err: err}
	}
	if cred.Token == "" {
		return nil, nil
	}
	cred.Role = domain.NormalizeRole(cred.Role)
	return &cred, nil
}
