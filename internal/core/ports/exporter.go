package ports

import (
	"context"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// Exporter persists a snapshot of the product listing.
type Exporter interface {
	Export(ctx context.Context, products []domain.Product) (domain.ExportReceipt, error)
}
