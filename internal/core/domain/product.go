package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LowStockThreshold is the quantity below which a product counts as low stock.
const LowStockThreshold = 10

// Product is the client-side copy of a catalog record owned by the remote service.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`

	// Extra carries fields returned by the server that the client does not
	// model, so a fetch-merge-write round trip sends them back untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	out := p
	if p.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// IsLowStock reports whether the product quantity is under LowStockThreshold.
func (p Product) IsLowStock() bool {
	return p.Quantity < LowStockThreshold
}

// Value is price times quantity.
func (p Product) Value() float64 {
	return p.Price * float64(p.Quantity)
}

// Matches reports whether query is a case-insensitive substring of the name
// or a substring of the decimal id.
func (p Product) Matches(query string) bool {
	if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
		return true
	}
	return strings.Contains(strconv.Itoa(p.ID), query)
}

// ProductInput carries the fields needed to create a product.
type ProductInput struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=0"`
}

// Statistics summarises a product listing.
type Statistics struct {
	TotalProducts int     `json:"totalProducts"`
	TotalValue    float64 `json:"totalValue"`
	AveragePrice  float64 `json:"averagePrice"`
	LowStock      int     `json:"lowStockProducts"`
}

// ComputeStatistics derives totals over products. An empty listing yields
// zero values throughout.
func ComputeStatistics(products []Product) Statistics {
	stats := Statistics{TotalProducts: len(products)}
	var priceSum float64
	for _, p := range products {
		stats.TotalValue += p.Value()
		priceSum += p.Price
		if p.IsLowStock() {
			stats.LowStock++
		}
	}
	if stats.TotalProducts > 0 {
		stats.AveragePrice = priceSum / float64(stats.TotalProducts)
	}
	return stats
}

// ImportFailure describes one record that could not be imported.
type ImportFailure struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ImportSummary is the tally of a batch import.
type ImportSummary struct {
	SuccessCount int             `json:"successCount"`
	ErrorCount   int             `json:"errorCount"`
	Failures     []ImportFailure `json:"failures,omitempty"`
}

// ExportReceipt describes where an export was written.
type ExportReceipt struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}
