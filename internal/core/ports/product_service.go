package ports

import (
	"context"
	"io"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// RecordReader fetches and writes single records; it is the slice of the
// product client the cell editor depends on.
type RecordReader interface {
	Get(ctx context.Context, id int) domain.Result[domain.Product]
	Update(ctx context.Context, id int, p domain.Product) domain.Result[domain.Product]
}

// ProductService defines the product operations exposed to the CLI. Every
// method reports failure through the envelope, never through a Go error.
type ProductService interface {
	RecordReader
	Create(ctx context.Context, in domain.ProductInput) domain.Result[domain.Product]
	List(ctx context.Context) domain.Result[[]domain.Product]
	Delete(ctx context.Context, id int) domain.Result[struct{}]
	Search(ctx context.Context, query string) domain.Result[[]domain.Product]
	Statistics(ctx context.Context) domain.Result[domain.Statistics]
	Export(ctx context.Context) domain.Result[domain.ExportReceipt]
	Import(ctx context.Context, r io.Reader) domain.Result[domain.ImportSummary]
}

// CellEditor applies a single-field edit to a displayed cell.
type CellEditor interface {
	Blur(ctx context.Context, cell *domain.Cell, input string) (domain.EditOutcome, error)
}
