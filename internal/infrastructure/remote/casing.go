package remote

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// Internal product field names.
const (
	fieldID       = "id"
	fieldName     = domain.FieldName
	fieldPrice    = domain.FieldPrice
	fieldQuantity = domain.FieldQuantity
)

// Casing maps internal field names to the names the backend expects on
// writes. Reads accept either name, case-insensitively.
type Casing map[string]string

// DefaultCasing matches the PascalCase model of the catalog backend.
var DefaultCasing = Casing{
	fieldID:       "ProductId",
	fieldName:     "Name",
	fieldPrice:    "Price",
	fieldQuantity: "Quantity",
}

// ParseCasing reads "internal=Backend" pairs, e.g. "id=ProductId". Fields
// not mentioned keep their default.
func ParseCasing(pairs []string) (Casing, error) {
	c := make(Casing, len(DefaultCasing))
	for k, v := range DefaultCasing {
		c[k] = v
	}
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || v == "" {
			return nil, &domain.ConfigurationError{Key: "FIELD_CASING", Reason: "expected internal=Backend, got " + pair}
		}
		if _, known := DefaultCasing[k]; !known {
			return nil, &domain.ConfigurationError{Key: "FIELD_CASING", Reason: "unknown field " + k}
		}
		c[k] = v
	}
	return c, nil
}

func (c Casing) backend(field string) string {
	if name, ok := c[field]; ok {
		return name
	}
	return field
}

// internal returns the internal name a wire key refers to.
func (c Casing) internal(key string) (string, bool) {
	for field, name := range c {
		if strings.EqualFold(key, field) || strings.EqualFold(key, name) {
			return field, true
		}
	}
	return "", false
}

// encodeProduct renders p with backend names. Unmodelled fields captured on
// read are sent back unchanged.
func (c Casing) encodeProduct(p domain.Product) ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	out[c.backend(fieldID)] = p.ID
	out[c.backend(fieldName)] = p.Name
	out[c.backend(fieldPrice)] = p.Price
	out[c.backend(fieldQuantity)] = p.Quantity
	return json.Marshal(out)
}

func (c Casing) encodeInput(in domain.ProductInput) ([]byte, error) {
	return json.Marshal(map[string]any{
		c.backend(fieldName):     in.Name,
		c.backend(fieldPrice):    in.Price,
		c.backend(fieldQuantity): in.Quantity,
	})
}

// decodeProduct reads a product object in any casing.
func (c Casing) decodeProduct(data []byte) (domain.Product, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Product{}, &domain.ParseError{Err: err}
	}

	var p domain.Product
	for key, value := range raw {
		field, ok := c.internal(key)
		if !ok {
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[key] = value
			continue
		}

		var err error
		switch field {
		case fieldID:
			err = json.Unmarshal(value, &p.ID)
		case fieldName:
			err = json.Unmarshal(value, &p.Name)
		case fieldPrice:
			err = json.Unmarshal(value, &p.Price)
		case fieldQuantity:
			err = json.Unmarshal(value, &p.Quantity)
		}
		if err != nil {
			return domain.Product{}, &domain.ParseError{Err: fmt.Errorf("field %s: %w", key, err)}
		}
	}
	return p, nil
}

func (c Casing) decodeProducts(data []byte) ([]domain.Product, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &domain.ParseError{Err: err}
	}
	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		p, err := c.decodeProduct(item)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
