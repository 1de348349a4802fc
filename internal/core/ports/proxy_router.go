package ports

import (
	"context"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// ProxyRouter is the mutable routing state of the endpoint resolver.
type ProxyRouter interface {
	IsDevelopment() bool
	EnableProxy(enabled bool)
	SwitchProxy(index int) error
	Strategy() domain.ProxyStrategy
	// BaseURL returns the effective base URL under the current strategy.
	BaseURL() (string, error)
	// ProbeURLs lists the direct products URL first, then one URL per proxy
	// template.
	ProbeURLs() ([]string, error)
}

// Prober checks whether a URL answers with a 2xx status.
type Prober interface {
	Probe(ctx context.Context, url string) error
}
