package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coderz/catalog-client/internal/core/ports"
)

const (
	keyProxyEnabled = "cors_fix_enabled"
	keyProxyIndex   = "cors_proxy_index"
)

// ProxyPreference is the persisted proxy choice.
type ProxyPreference struct {
	Enabled bool `json:"enabled"`
	Index   int  `json:"index"`
}

// ProxyPreferences persists the proxy toggle and index across runs.
type ProxyPreferences struct {
	kv ports.KeyValueStore
}

func NewProxyPreferences(kv ports.KeyValueStore) *ProxyPreferences {
	return &ProxyPreferences{kv: kv}
}

// Load returns the saved preference and whether one exists. Unparseable
// values are treated as absent.
func (p *ProxyPreferences) Load(ctx context.Context) (ProxyPreference, bool, error) {
	enabled, ok, err := p.kv.Get(ctx, keyProxyEnabled)
	if err != nil {
		return ProxyPreference{}, false, fmt.Errorf("proxy preferences: %w", err)
	}
	if !ok {
		return ProxyPreference{}, false, nil
	}
	pref := ProxyPreference{Enabled: enabled == "true"}

	raw, ok, err := p.kv.Get(ctx, keyProxyIndex)
	if err != nil {
		return ProxyPreference{}, false, fmt.Errorf("proxy preferences: %w", err)
	}
	if ok {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return ProxyPreference{}, false, nil
		}
		pref.Index = idx
	}
	return pref, true, nil
}

func (p *ProxyPreferences) Save(ctx context.Context, pref ProxyPreference) error {
	if err := p.kv.Set(ctx, keyProxyEnabled, strconv.FormatBool(pref.Enabled)); err != nil {
		return fmt.Errorf("proxy preferences: %w", err)
	}
	if err := p.kv.Set(ctx, keyProxyIndex, strconv.Itoa(pref.Index)); err != nil {
		return fmt.Errorf("proxy preferences: %w", err)
	}
	return nil
}

func (p *ProxyPreferences) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, keyProxyEnabled, keyProxyIndex); err != nil {
		return fmt.Errorf("proxy preferences: %w", err)
	}
	return nil
}
