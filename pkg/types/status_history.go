package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StatusChange is a single append-only entry in a sub-order's history.
type StatusChange struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ChangedBy string    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// StatusHistory is the ordered list of status changes persisted as JSONB.
type StatusHistory []StatusChange

// Value marshals the history into JSON for Postgres.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the history slice.
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("status history: unsupported scan type %T", value)
	}

	var result StatusHistory
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*h = result
	return nil
}
