package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// DefaultCollection stores product listing snapshots.
const DefaultCollection = "product_snapshots"

// SnapshotExporter implements ports.Exporter by archiving each export as a
// single document.
type SnapshotExporter struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewSnapshotExporter creates a SnapshotExporter writing to collection in db.
func NewSnapshotExporter(db *mongo.Database, collection string) *SnapshotExporter {
	if collection == "" {
		collection = DefaultCollection
	}
	return &SnapshotExporter{coll: db.Collection(collection), now: time.Now}
}

// Export inserts one snapshot document and reports it as
// "mongodb://<db>/<collection>/<id>".
func (e *SnapshotExporter) Export(ctx context.Context, products []domain.Product) (domain.ExportReceipt, error) {
	doc := snapshotDocument(products, e.now())
	res, err := e.coll.InsertOne(ctx, doc)
	if err != nil {
		return domain.ExportReceipt{}, fmt.Errorf("insert snapshot: %w", err)
	}
	location := fmt.Sprintf("mongodb://%s/%s/%v", e.coll.Database().Name(), e.coll.Name(), res.InsertedID)
	return domain.ExportReceipt{Location: location, Count: len(products)}, nil
}

// snapshotDocument builds the stored form of one export.
func snapshotDocument(products []domain.Product, ts time.Time) bson.M {
	items := make(bson.A, 0, len(products))
	for _, p := range products {
		items = append(items, bson.M{
			"product_id": p.ID,
			"name":       p.Name,
			"price":      p.Price,
			"quantity":   p.Quantity,
			"low_stock":  p.IsLowStock(),
		})
	}
	return bson.M{
		"taken_at": ts.UTC(),
		"day":      ts.Format("2006-01-02"),
		"count":    len(products),
		"products": items,
	}
}
