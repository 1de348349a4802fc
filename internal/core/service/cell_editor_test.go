package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/core/domain"
)

func newTestEditor(g *stubProductGateway) *CellEditor {
	products := NewProductService(g, nil, NewMessages("en"), zerolog.Nop())
	return NewCellEditor(products, NewMessages("en"), zerolog.Nop())
}

func TestCellEditor_UnchangedInputSkipsNetwork(t *testing.T) {
	g := newStubProductGateway(domain.Product{ID: 1, Name: "Pen", Quantity: 5})
	editor := newTestEditor(g)
	cell := domain.NewCell(1, domain.FieldQuantity, 5)

	out, err := editor.Blur(context.Background(), cell, " 5 ")
	if err != nil {
		t.Fatalf("Blur: %v", err)
	}
	if out.State != domain.CellIdle || cell.State != domain.CellIdle {
		t.Fatalf("expected idle, got %s", cell.State)
	}
	if g.count("get")+g.count("update") != 0 {
		t.Fatalf("no network call expected")
	}
}

func TestCellEditor_InvalidNumberRevertsWithoutNetwork(t *testing.T) {
	g := newStubProductGateway(domain.Product{ID: 1, Name: "Pen", Quantity: 10})
	editor := newTestEditor(g)
	cell := domain.NewCell(1, domain.FieldQuantity, 10)

	out, err := editor.Blur(context.Background(), cell, "abc")

	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != domain.FieldQuantity {
		t.Fatalf("expected quantity validation error, got %v", err)
	}
	if cell.Value != "10" || out.Value != "10" {
		t.Fatalf("expected revert to 10, got %q", cell.Value)
	}
	if cell.State != domain.CellRolledBack {
		t.Fatalf("expected rolled back, got %s", cell.State)
	}
	if g.count("get")+g.count("update") != 0 {
		t.Fatalf("validation failure must not reach the network")
	}
}

func TestCellEditor_NonFinitePriceRevertsWithoutNetwork(t *testing.T) {
	for _, input := range []string{"NaN", "Inf"} {
		g := newStubProductGateway(domain.Product{ID: 1, Name: "Pen", Price: 2})
		editor := newTestEditor(g)
		cell := domain.NewCell(1, domain.FieldPrice, 2.0)

		_, err := editor.Blur(context.Background(), cell, input)

		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != domain.FieldPrice {
			t.Fatalf("%s: expected price validation error, got %v", input, err)
		}
		if cell.Value != "2.00" || cell.State != domain.CellRolledBack {
			t.Fatalf("%s: expected rolled back 2.00, got %s %q", input, cell.State, cell.Value)
		}
		if g.count("get") != 0 || g.count("update") != 0 {
			t.Fatalf("%s: validation failure must not reach the network", input)
		}
	}
}

func TestCellEditor_CommitMergesSingleField(t *testing.T) {
	extra := map[string]json.RawMessage{"createdAt": json.RawMessage(`"2024-01-01"`)}
	g := newStubProductGateway(domain.Product{ID: 3, Name: "Pen", Price: 1.5, Quantity: 20, Extra: extra})
	editor := newTestEditor(g)
	cell := domain.NewCell(3, domain.FieldPrice, 1.5)

	if cell.Value != "1.50" {
		t.Fatalf("unexpected initial display %q", cell.Value)
	}

	out, err := editor.Blur(context.Background(), cell, "12.5")
	if err != nil {
		t.Fatalf("Blur: %v", err)
	}
	if cell.State != domain.CellCommitted || out.Value != "12.50" {
		t.Fatalf("expected committed 12.50, got %s %q", cell.State, out.Value)
	}
	if g.count("get") != 1 || g.count("update") != 1 {
		t.Fatalf("expected one fetch and one write, got %d/%d", g.count("get"), g.count("update"))
	}

	stored := g.products[3]
	if stored.Price != 12.5 || stored.Name != "Pen" || stored.Quantity != 20 {
		t.Fatalf("merge touched other fields: %+v", stored)
	}
	if string(stored.Extra["createdAt"]) != `"2024-01-01"` {
		t.Fatalf("unmodelled field lost: %v", stored.Extra)
	}

	// A settled cell accepts the next edit.
	if _, err := editor.Blur(context.Background(), cell, "13"); err != nil {
		t.Fatalf("second Blur: %v", err)
	}
	if cell.Value != "13.00" {
		t.Fatalf("expected 13.00, got %q", cell.Value)
	}
}

func TestCellEditor_RollbackOnRemoteFailure(t *testing.T) {
	cases := []struct {
		name       string
		setup      func(*stubProductGateway)
		wantUpdate int
	}{
		{"fetch fails", func(g *stubProductGateway) {
			g.getErr = &domain.NetworkUnreachableError{Err: errors.New("refused")}
		}, 0},
		{"write fails", func(g *stubProductGateway) {
			g.updateErr = &domain.HTTPStatusError{Status: 500}
		}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newStubProductGateway(domain.Product{ID: 1, Name: "Pen", Quantity: 4})
			tc.setup(g)
			editor := newTestEditor(g)
			cell := domain.NewCell(1, domain.FieldName, "Pen")

			out, err := editor.Blur(context.Background(), cell, "Marker")
			if err == nil {
				t.Fatal("expected error")
			}
			if cell.State != domain.CellRolledBack || cell.Value != "Pen" {
				t.Fatalf("expected rollback to Pen, got %s %q", cell.State, cell.Value)
			}
			if out.Message != "Update failed, value restored" {
				t.Fatalf("unexpected message %q", out.Message)
			}
			if g.count("update") != tc.wantUpdate {
				t.Fatalf("expected %d writes, got %d", tc.wantUpdate, g.count("update"))
			}
		})
	}
}

// blockingReader holds Get until release is closed.
type blockingReader struct {
	*ProductService
	entered chan struct{}
	release chan struct{}
}

func (b *blockingReader) Get(ctx context.Context, id int) domain.Result[domain.Product] {
	close(b.entered)
	<-b.release
	return b.ProductService.Get(ctx, id)
}

func TestCellEditor_RejectsConcurrentEditOfSameCell(t *testing.T) {
	g := newStubProductGateway(domain.Product{ID: 1, Name: "Pen", Quantity: 4})
	reader := &blockingReader{
		ProductService: NewProductService(g, nil, nil, zerolog.Nop()),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	editor := NewCellEditor(reader, nil, zerolog.Nop())

	first := domain.NewCell(1, domain.FieldQuantity, 4)
	done := make(chan error, 1)
	go func() {
		_, err := editor.Blur(context.Background(), first, "8")
		done <- err
	}()
	<-reader.entered

	second := domain.NewCell(1, domain.FieldQuantity, 4)
	if _, err := editor.Blur(context.Background(), second, "9"); !errors.Is(err, domain.ErrEditInFlight) {
		t.Fatalf("expected ErrEditInFlight, got %v", err)
	}

	close(reader.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Blur: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first Blur did not finish")
	}
	if g.products[1].Quantity != 8 {
		t.Fatalf("expected quantity 8, got %d", g.products[1].Quantity)
	}
}
