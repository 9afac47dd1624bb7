package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProductSnapshot captures product detail at order time so later catalog
// edits never change what the buyer saw.
type ProductSnapshot struct {
	ProductID   string   `json:"product_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	PriceCents  int64    `json:"price_cents"`
	Missing     bool     `json:"missing,omitempty"`
}

// Value marshals the snapshot into JSON for Postgres.
func (s ProductSnapshot) Value() (driver.Value, error) {
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the snapshot.
func (s *ProductSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = ProductSnapshot{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("product snapshot: unsupported scan type %T", value)
	}

	return json.Unmarshal(raw, s)
}
