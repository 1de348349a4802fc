package service

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

var errNotSignedIn = errors.New("no stored credential")

// AuthService implements login, registration and logout against the remote
// API. The credential itself is written to the token store by the auth
// transport; this service only reads it back.
type AuthService struct {
	gateway ports.AuthGateway
	tokens  ports.TokenStore
	msg     *Messages
	logger  zerolog.Logger
}

func NewAuthService(gateway ports.AuthGateway, tokens ports.TokenStore, msg *Messages, logger zerolog.Logger) *AuthService {
	if msg == nil {
		msg = NewMessages("")
	}
	return &AuthService{gateway: gateway, tokens: tokens, msg: msg, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, in domain.LoginInput) domain.Result[domain.Session] {
	if err := validateInput(in); err != nil {
		return domain.Fail[domain.Session](err, s.msg.get(msgLoginFailed))
	}
	cred, err := s.gateway.Login(ctx, in)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", in.Email).Msg("login failed")
		return domain.Fail[domain.Session](err, s.msg.get(msgLoginFailed))
	}
	session := newSession(*cred)
	s.logger.Info().Str("role", session.Role).Msg("login succeeded")
	return domain.Ok(session, s.msg.get(msgLoginOK, session.Role))
}

func (s *AuthService) Register(ctx context.Context, in domain.RegisterInput) domain.Result[domain.Session] {
	if err := validateInput(in); err != nil {
		return domain.Fail[domain.Session](err, s.msg.get(msgRegisterFailed))
	}
	cred, err := s.gateway.Register(ctx, in)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", in.Email).Msg("register failed")
		return domain.Fail[domain.Session](err, s.msg.get(msgRegisterFailed))
	}
	session := domain.Session{Credential: domain.Credential{Role: domain.RoleGuest}}
	if cred != nil {
		session = newSession(*cred)
	}
	return domain.Ok(session, s.msg.get(msgRegisterOK))
}

// Logout clears the stored credential. It never calls the server.
func (s *AuthService) Logout(ctx context.Context) domain.Result[struct{}] {
	if err := s.tokens.Clear(ctx); err != nil {
		return domain.Fail[struct{}](err, s.msg.get(msgLogoutFailed))
	}
	return domain.Ok(struct{}{}, s.msg.get(msgLogoutOK))
}

// Current returns the stored credential and its unverified claims.
func (s *AuthService) Current(ctx context.Context) domain.Result[domain.Session] {
	cred, err := s.tokens.Get(ctx)
	if err != nil {
		return domain.Fail[domain.Session](err, s.msg.get(msgNotSignedIn))
	}
	if cred == nil {
		return domain.Fail[domain.Session](errNotSignedIn, s.msg.get(msgNotSignedIn))
	}
	session := newSession(*cred)
	return domain.Ok(session, s.msg.get(msgSignedInAs, session.Role))
}

func newSession(cred domain.Credential) domain.Session {
	cred.Role = domain.NormalizeRole(cred.Role)
	return domain.Session{Credential: cred, Claims: inspectClaims(cred.Token)}
}

// inspectClaims decodes the token payload without verifying the signature.
// The result is for display only; nil means the token is opaque.
func inspectClaims(token string) *domain.TokenClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	out := &domain.TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if out.Subject == "" {
		if email, ok := claims["email"].(string); ok {
			out.Subject = email
		}
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out
}
