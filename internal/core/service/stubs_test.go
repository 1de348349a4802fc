package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Product gateway stub
// ---------------------------------------------------------------------------

type stubProductGateway struct {
	mu       sync.Mutex
	products map[int]domain.Product
	nextID   int
	calls    map[string]int

	listErr   error
	getErr    error
	updateErr error
	createErr func(domain.ProductInput) error
}

func newStubProductGateway(seed ...domain.Product) *stubProductGateway {
	g := &stubProductGateway{products: make(map[int]domain.Product), nextID: 1, calls: make(map[string]int)}
	for _, p := range seed {
		if p.ID == 0 {
			p.ID = g.nextID
		}
		if p.ID >= g.nextID {
			g.nextID = p.ID + 1
		}
		g.products[p.ID] = p.Clone()
	}
	return g
}

func (g *stubProductGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *stubProductGateway) List(context.Context) ([]domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["list"]++
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]domain.Product, 0, len(g.products))
	for _, p := range g.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *stubProductGateway) Get(_ context.Context, id int) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["get"]++
	if g.getErr != nil {
		return nil, g.getErr
	}
	p, ok := g.products[id]
	if !ok {
		return nil, &domain.HTTPStatusError{Status: 404}
	}
	c := p.Clone()
	return &c, nil
}

func (g *stubProductGateway) Create(_ context.Context, in domain.ProductInput) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["create"]++
	if g.createErr != nil {
		if err := g.createErr(in); err != nil {
			return nil, err
		}
	}
	p := domain.Product{ID: g.nextID, Name: in.Name, Price: in.Price, Quantity: in.Quantity}
	g.nextID++
	g.products[p.ID] = p
	return &p, nil
}

func (g *stubProductGateway) Update(_ context.Context, id int, p domain.Product) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["update"]++
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	if _, ok := g.products[id]; !ok {
		return nil, &domain.HTTPStatusError{Status: 404}
	}
	p.ID = id
	g.products[id] = p.Clone()
	return nil, nil
}

func (g *stubProductGateway) Delete(_ context.Context, id int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["delete"]++
	if _, ok := g.products[id]; !ok {
		return &domain.HTTPStatusError{Status: 404}
	}
	delete(g.products, id)
	return nil
}

// ---------------------------------------------------------------------------
// Exporter stub
// ---------------------------------------------------------------------------

type stubExporter struct {
	got []domain.Product
	err error
}

func (e *stubExporter) Export(_ context.Context, products []domain.Product) (domain.ExportReceipt, error) {
	if e.err != nil {
		return domain.ExportReceipt{}, e.err
	}
	e.got = products
	return domain.ExportReceipt{Location: "memory://export", Count: len(products)}, nil
}

// ---------------------------------------------------------------------------
// Auth gateway stub: writes the credential to the store the way the
// capturing transport does.
// ---------------------------------------------------------------------------

type stubAuthGateway struct {
	store  *TokenStore
	token  string
	role   string
	err    error
	logins int
}

func (g *stubAuthGateway) Login(ctx context.Context, _ domain.LoginInput) (*domain.Credential, error) {
	g.logins++
	return g.issue(ctx)
}

func (g *stubAuthGateway) Register(ctx context.Context, _ domain.RegisterInput) (*domain.Credential, error) {
	return g.issue(ctx)
}

func (g *stubAuthGateway) issue(ctx context.Context) (*domain.Credential, error) {
	if g.err != nil {
		return nil, g.err
	}
	cred := domain.Credential{Token: g.token, Role: domain.NormalizeRole(g.role)}
	if err := g.store.Set(ctx, cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// ---------------------------------------------------------------------------
// Proxy router and prober stubs
// ---------------------------------------------------------------------------

type stubRouter struct {
	strategy domain.ProxyStrategy
	dev      bool
}

func (r *stubRouter) IsDevelopment() bool            { return r.dev }
func (r *stubRouter) EnableProxy(on bool)            { r.strategy.Enabled = on }
func (r *stubRouter) Strategy() domain.ProxyStrategy { return r.strategy }

func (r *stubRouter) SwitchProxy(i int) error {
	if i < 0 || i >= len(r.strategy.Templates) {
		return &domain.ConfigurationError{Key: "CORS_PROXY_INDEX", Reason: "out of bounds"}
	}
	r.strategy.Index = i
	return nil
}

func (r *stubRouter) BaseURL() (string, error) {
	if r.strategy.Enabled {
		return r.strategy.Active() + "http://localhost:5086/api", nil
	}
	return "http://localhost:5086/api", nil
}

func (r *stubRouter) ProbeURLs() ([]string, error) {
	urls := []string{"direct"}
	urls = append(urls, r.strategy.Templates...)
	return urls, nil
}

type stubProber struct {
	ok     map[string]bool
	probed []string
}

var errProbe = errors.New("probe failed")

func (p *stubProber) Probe(_ context.Context, url string) error {
	p.probed = append(p.probed, url)
	if p.ok[url] {
		return nil
	}
	return errProbe
}
