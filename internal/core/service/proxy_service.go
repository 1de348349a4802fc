package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

var errNoWorkingRoute = errors.New("no direct or proxied route answered")

// ProxyService toggles CORS proxy routing and keeps the choice persisted.
type ProxyService struct {
	router ports.ProxyRouter
	prefs  *ProxyPreferences
	prober ports.Prober
	msg    *Messages
	logger zerolog.Logger
}

func NewProxyService(router ports.ProxyRouter, prefs *ProxyPreferences, prober ports.Prober, msg *Messages, logger zerolog.Logger) *ProxyService {
	if msg == nil {
		msg = NewMessages("")
	}
	return &ProxyService{router: router, prefs: prefs, prober: prober, msg: msg, logger: logger}
}

// Restore applies the persisted preference to the router. A stored choice
// overrides the configured default; a stored index that is out of range is
// ignored.
func (s *ProxyService) Restore(ctx context.Context) error {
	pref, ok, err := s.prefs.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := s.router.SwitchProxy(pref.Index); err != nil {
		s.logger.Warn().Err(err).Int("index", pref.Index).Msg("ignoring stored proxy index")
	}
	s.router.EnableProxy(pref.Enabled)
	s.logger.Debug().
		Bool("enabled", pref.Enabled).
		Int("index", s.router.Strategy().Index).
		Msg("restored proxy preference")
	return nil
}

func (s *ProxyService) Enable(ctx context.Context) domain.Result[domain.ProxyStatus] {
	s.router.EnableProxy(true)
	return s.persist(ctx, s.msg.get(msgProxyEnabled, s.router.Strategy().Active()))
}

func (s *ProxyService) Disable(ctx context.Context) domain.Result[domain.ProxyStatus] {
	s.router.EnableProxy(false)
	return s.persist(ctx, s.msg.get(msgProxyDisabled))
}

// Switch selects the proxy at index. The proxy is not enabled implicitly.
func (s *ProxyService) Switch(ctx context.Context, index int) domain.Result[domain.ProxyStatus] {
	if err := s.router.SwitchProxy(index); err != nil {
		return domain.Fail[domain.ProxyStatus](err, s.msg.get(msgProxySwitchFailed))
	}
	return s.persist(ctx, s.msg.get(msgProxySwitched, index, s.router.Strategy().Active()))
}

func (s *ProxyService) Show(context.Context) domain.Result[domain.ProxyStatus] {
	return domain.Ok(s.status(), s.msg.get(msgProxyStatus))
}

// Reset disables the proxy, selects the first template and forgets the
// persisted preference.
func (s *ProxyService) Reset(ctx context.Context) domain.Result[domain.ProxyStatus] {
	s.router.EnableProxy(false)
	_ = s.router.SwitchProxy(0)
	if err := s.prefs.Clear(ctx); err != nil {
		return domain.Fail[domain.ProxyStatus](err, s.msg.get(msgProxyPersistFail))
	}
	return domain.Ok(s.status(), s.msg.get(msgProxyReset))
}

// AutoDetect probes the direct URL and then each proxy in order; the first
// route that answers wins and is persisted.
func (s *ProxyService) AutoDetect(ctx context.Context) domain.Result[domain.ProxyStatus] {
	urls, err := s.router.ProbeURLs()
	if err != nil {
		return domain.Fail[domain.ProxyStatus](err, s.msg.get(msgProxyNoneWorks))
	}

	for i, u := range urls {
		if err := s.prober.Probe(ctx, u); err != nil {
			if ctx.Err() != nil {
				return domain.Fail[domain.ProxyStatus](ctx.Err(), s.msg.get(msgProxyNoneWorks))
			}
			s.logger.Debug().Err(err).Str("url", u).Msg("probe failed")
			continue
		}

		if i == 0 {
			s.router.EnableProxy(false)
			return s.persist(ctx, s.msg.get(msgProxyDirectOK))
		}
		if err := s.router.SwitchProxy(i - 1); err != nil {
			return domain.Fail[domain.ProxyStatus](err, s.msg.get(msgProxySwitchFailed))
		}
		s.router.EnableProxy(true)
		return s.persist(ctx, s.msg.get(msgProxyFound, i-1, s.router.Strategy().Active()))
	}

	s.logger.Warn().Int("candidates", len(urls)).Msg("no working route found")
	return domain.Fail[domain.ProxyStatus](errNoWorkingRoute, s.msg.get(msgProxyNoneWorks))
}

func (s *ProxyService) persist(ctx context.Context, message string) domain.Result[domain.ProxyStatus] {
	strategy := s.router.Strategy()
	if err := s.prefs.Save(ctx, ProxyPreference{Enabled: strategy.Enabled, Index: strategy.Index}); err != nil {
		return domain.Fail[domain.ProxyStatus](err, s.msg.get(msgProxyPersistFail))
	}
	return domain.Ok(s.status(), message)
}

func (s *ProxyService) status() domain.ProxyStatus {
	st := domain.ProxyStatus{ProxyStrategy: s.router.Strategy(), Environment: "production"}
	if s.router.IsDevelopment() {
		st.Environment = "development"
	}
	if u, err := s.router.BaseURL(); err == nil {
		st.EffectiveURL = u
	}
	return st
}
