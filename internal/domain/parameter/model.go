package parameter

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("stored parameter not found")

// StoredParameter is a value the clinician entered once and may reuse in
// other calculators during the same session.
type StoredParameter struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Value     interface{} `json:"value"`
	Unit      string      `json:"unit,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
