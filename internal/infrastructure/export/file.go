// Package export writes product listing snapshots to local files.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// FileExporter writes one JSON file per export into Dir.
type FileExporter struct {
	Dir string
	now func() time.Time
}

// NewFileExporter returns an exporter writing into dir. An empty dir means
// the working directory.
func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{Dir: dir, now: time.Now}
}

// FileName returns the export file name for day t.
func FileName(t time.Time) string {
	return fmt.Sprintf("products_%s.json", t.Format("2006-01-02"))
}

// Export writes products as an indented JSON array. A second export on the
// same day replaces the earlier file.
func (e *FileExporter) Export(ctx context.Context, products []domain.Product) (domain.ExportReceipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExportReceipt{}, err
	}
	records := make([]map[string]any, 0, len(products))
	for _, p := range products {
		records = append(records, exportRecord(p))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.ExportReceipt{}, fmt.Errorf("encode export: %w", err)
	}

	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.ExportReceipt{}, fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, FileName(e.now()))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return domain.ExportReceipt{}, fmt.Errorf("write export: %w", err)
	}
	return domain.ExportReceipt{Location: path, Count: len(products)}, nil
}

// exportRecord flattens p into one object. Server fields the client does not
// model are kept; modelled fields win on a name clash.
func exportRecord(p domain.Product) map[string]any {
	out := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["id"] = p.ID
	out["name"] = p.Name
	out["price"] = p.Price
	out["quantity"] = p.Quantity
	return out
}
