package ports

import (
	"context"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// ProductGateway performs raw product calls against the remote API.
type ProductGateway interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	// Update writes the full record; the response body may be empty.
	Update(ctx context.Context, id int, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int) error
}
