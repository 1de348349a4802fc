package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/coderz/catalog-client/internal/core/domain"
)

func TestSnapshotDocument(t *testing.T) {
	ts := time.Date(2026, 1, 2, 23, 30, 0, 0, time.FixedZone("x", 2*3600))
	doc := snapshotDocument([]domain.Product{
		{ID: 4, Name: "Pen", Price: 1.25, Quantity: 2},
		{ID: 5, Name: "Ink", Price: 4, Quantity: 40},
	}, ts)

	if doc["count"] != 2 {
		t.Fatalf("expected count 2, got %v", doc["count"])
	}
	if got := doc["taken_at"].(time.Time); got.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", got.Location())
	}
	if doc["day"] != "2026-01-02" {
		t.Fatalf("expected day 2026-01-02, got %v", doc["day"])
	}
	items := doc["products"].(bson.A)
	first := items[0].(bson.M)
	if first["product_id"] != 4 || first["low_stock"] != true {
		t.Fatalf("unexpected first item: %v", first)
	}
	if items[1].(bson.M)["low_stock"] != false {
		t.Fatal("expected second item not low stock")
	}
}

func TestSnapshotDocument_Empty(t *testing.T) {
	doc := snapshotDocument(nil, time.Now())
	if len(doc["products"].(bson.A)) != 0 {
		t.Fatal("expected empty products array")
	}
}

func TestOpen_EmptyURI(t *testing.T) {
	if _, err := Open(t.Context(), Config{}); err == nil {
		t.Fatal("expected error for empty URI")
	}
}
