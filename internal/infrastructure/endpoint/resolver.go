// Package endpoint computes effective request URLs from logical endpoint keys,
// the runtime environment and an optional CORS proxy strategy.
package endpoint

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// Key is a logical endpoint name, independent of proxy and environment.
type Key string

const (
	KeyBase     Key = "BASE_URL"
	KeyLogin    Key = "LOGIN"
	KeyRegister Key = "REGISTER"
	KeyProducts Key = "PRODUCTS"
)

// DefaultPaths maps each logical key to its path fragment under the base URL.
var DefaultPaths = map[Key]string{
	KeyBase:     "",
	KeyLogin:    "/Auth/login",
	KeyRegister: "/Auth/register",
	KeyProducts: "/Products",
}

// DefaultProxyTemplates are the public CORS proxies tried by default.
var DefaultProxyTemplates = []string{
	"https://cors-anywhere.herokuapp.com/",
	"https://api.allorigins.win/raw?url=",
	"https://corsproxy.io/?",
	"https://thingproxy.freeboard.io/fetch/",
}

var devHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
}

// ProxyStrategy is an ordered list of proxy templates with an active index.
type ProxyStrategy = domain.ProxyStrategy

// Config captures everything Resolve depends on.
type Config struct {
	BaseURL string
	// Paths overrides DefaultPaths per key when non-empty.
	Paths map[Key]string
	// Hostname is the runtime host used to pick dev or prod resolution.
	Hostname string
	Proxy    ProxyStrategy
}

// Resolver maps logical keys to URLs. Resolution is a pure function of the
// current configuration; the proxy toggles are the only mutable state.
type Resolver struct {
	mu       sync.RWMutex
	baseURL  *url.URL
	paths    map[Key]string
	hostname string
	proxy    ProxyStrategy
	kinds    []ProxyKind
}

// New validates cfg and returns a Resolver.
func New(cfg Config) (*Resolver, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &domain.ConfigurationError{Key: string(KeyBase), Reason: "invalid base URL " + cfg.BaseURL}
	}

	paths := make(map[Key]string, len(DefaultPaths))
	for k, v := range DefaultPaths {
		paths[k] = v
	}
	for k, v := range cfg.Paths {
		paths[k] = v
	}

	hostname := strings.TrimSpace(cfg.Hostname)
	if hostname == "" {
		hostname = "localhost"
	}

	proxy := cfg.Proxy
	proxy.Templates = append([]string(nil), proxy.Templates...)
	if len(proxy.Templates) > 0 && (proxy.Index < 0 || proxy.Index >= len(proxy.Templates)) {
		return nil, indexError(proxy.Index)
	}

	return &Resolver{
		baseURL:  base,
		paths:    paths,
		hostname: hostname,
		proxy:    proxy,
		kinds:    append([]ProxyKind(nil), defaultKinds...),
	}, nil
}

// IsDevelopment reports whether the runtime host is a loopback development host.
func (r *Resolver) IsDevelopment() bool {
	_, ok := devHosts[r.hostname]
	return ok
}

// Resolve returns the effective URL for key with optional path segments
// appended. Segments are part of the proxied target.
func (r *Resolver) Resolve(key Key, segments ...string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, err := r.directLocked(key, segments)
	if err != nil {
		return "", err
	}
	if !r.proxy.Enabled {
		return target, nil
	}
	return r.wrapLocked(r.proxy.Index, target)
}

// Direct returns the URL for key ignoring any proxy.
func (r *Resolver) Direct(key Key, segments ...string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.directLocked(key, segments)
}

// Via returns the URL for key routed through the proxy at index, regardless
// of whether proxying is currently enabled.
func (r *Resolver) Via(index int, key Key, segments ...string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, err := r.directLocked(key, segments)
	if err != nil {
		return "", err
	}
	return r.wrapLocked(index, target)
}

func (r *Resolver) directLocked(key Key, segments []string) (string, error) {
	path, ok := r.paths[key]
	if !ok {
		return "", &domain.ConfigurationError{Key: string(key), Reason: "unknown endpoint key"}
	}

	u := *r.baseURL
	if _, dev := devHosts[r.hostname]; !dev {
		if port := u.Port(); port != "" {
			u.Host = net.JoinHostPort(r.hostname, port)
		} else {
			u.Host = r.hostname
		}
	}

	var b strings.Builder
	b.WriteString(u.String())
	b.WriteString(path)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String(), nil
}

func (r *Resolver) wrapLocked(index int, target string) (string, error) {
	if index < 0 || index >= len(r.proxy.Templates) {
		return "", indexError(index)
	}
	tmpl := r.proxy.Templates[index]
	for _, kind := range r.kinds {
		if kind.Match(tmpl) {
			return kind.Wrap(tmpl, target), nil
		}
	}
	return "", &domain.ConfigurationError{Key: "CORS_PROXY_URLS", Reason: "no proxy kind matches " + tmpl}
}

// EnableProxy turns proxy routing on or off.
func (r *Resolver) EnableProxy(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxy.Enabled = enabled
}

// SwitchProxy selects the active proxy template. An out-of-bounds index
// leaves the strategy unchanged.
func (r *Resolver) SwitchProxy(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.proxy.Templates) {
		return indexError(index)
	}
	r.proxy.Index = index
	return nil
}

// Strategy returns a copy of the current proxy strategy.
func (r *Resolver) Strategy() ProxyStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.proxy
	s.Templates = append([]string(nil), r.proxy.Templates...)
	return s
}

// BaseURL resolves KeyBase under the current strategy.
func (r *Resolver) BaseURL() (string, error) {
	return r.Resolve(KeyBase)
}

// ProbeURLs returns the direct products URL followed by the same URL routed
// through each proxy template, in template order.
func (r *Resolver) ProbeURLs() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	direct, err := r.directLocked(KeyProducts, nil)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(r.proxy.Templates)+1)
	urls = append(urls, direct)
	for i := range r.proxy.Templates {
		u, err := r.wrapLocked(i, direct)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// Templates returns the configured proxy templates in order.
func (r *Resolver) Templates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.proxy.Templates...)
}

// RegisterKind adds a proxy kind ahead of the built-in ones.
func (r *Resolver) RegisterKind(kind ProxyKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append([]ProxyKind{kind}, r.kinds...)
}

func indexError(index int) error {
	return &domain.ConfigurationError{Key: "CORS_PROXY_INDEX", Reason: "proxy index out of bounds: " + strconv.Itoa(index)}
}
