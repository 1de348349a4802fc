// Package remote adapts the catalog REST endpoints to the domain gateways.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/infrastructure/endpoint"
	"github.com/coderz/catalog-client/internal/infrastructure/transport"
)

// Executor performs one logical request.
type Executor interface {
	Execute(ctx context.Context, req transport.Request) (json.RawMessage, error)
}

// URLResolver maps logical endpoint keys to effective URLs.
type URLResolver interface {
	Resolve(key endpoint.Key, segments ...string) (string, error)
}

// ProductGateway talks to the Products endpoint.
type ProductGateway struct {
	exec     Executor
	resolver URLResolver
	casing   Casing
}

// NewProductGateway creates a ProductGateway. A nil casing uses DefaultCasing.
func NewProductGateway(exec Executor, resolver URLResolver, casing Casing) *ProductGateway {
	if casing == nil {
		casing = DefaultCasing
	}
	return &ProductGateway{exec: exec, resolver: resolver, casing: casing}
}

func (g *ProductGateway) List(ctx context.Context) ([]domain.Product, error) {
	data, err := g.do(ctx, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	return g.casing.decodeProducts(data)
}

func (g *ProductGateway) Get(ctx context.Context, id int) (*domain.Product, error) {
	data, err := g.do(ctx, http.MethodGet, nil, []string{strconv.Itoa(id)})
	if err != nil {
		return nil, err
	}
	p, err := g.casing.decodeProduct(data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create posts in. When the server answers without a body the input is
// echoed back without an id.
func (g *ProductGateway) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	body, err := g.casing.encodeInput(in)
	if err != nil {
		return nil, err
	}
	data, err := g.do(ctx, http.MethodPost, body, nil)
	if err != nil {
		return nil, err
	}
	if isEmptyObject(data) {
		return &domain.Product{Name: in.Name, Price: in.Price, Quantity: in.Quantity}, nil
	}
	p, err := g.casing.decodeProduct(data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update puts the full record. A nil product with a nil error means the
// server accepted the write without returning a body.
func (g *ProductGateway) Update(ctx context.Context, id int, p domain.Product) (*domain.Product, error) {
	p.ID = id
	body, err := g.casing.encodeProduct(p)
	if err != nil {
		return nil, err
	}
	data, err := g.do(ctx, http.MethodPut, body, []string{strconv.Itoa(id)})
	if err != nil {
		return nil, err
	}
	if isEmptyObject(data) {
		return nil, nil
	}
	updated, err := g.casing.decodeProduct(data)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (g *ProductGateway) Delete(ctx context.Context, id int) error {
	_, err := g.do(ctx, http.MethodDelete, nil, []string{strconv.Itoa(id)})
	return err
}

func (g *ProductGateway) do(ctx context.Context, method string, body []byte, segments []string) (json.RawMessage, error) {
	url, err := g.resolver.Resolve(endpoint.KeyProducts, segments...)
	if err != nil {
		return nil, err
	}
	return g.exec.Execute(ctx, transport.Request{Method: method, URL: url, Body: body})
}

func isEmptyObject(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("{}"))
}
