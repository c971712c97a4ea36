package arcgis

import (
	"encoding/json"
	"fmt"
)

// Feature is one raw record from a feature query response. Geometry stays
// raw until the caller decodes it for the layer's expected kind.
type Feature struct {
	Attributes map[string]any  `json:"attributes"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

// Page is a single feature query response.
type Page struct {
	Features              []Feature     `json:"features"`
	ExceededTransferLimit bool          `json:"exceededTransferLimit"`
	Error                 *ServiceError `json:"error"`
}

// ServiceError is the error envelope services embed in an otherwise
// successful HTTP response.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// Error implements error.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("arcgis: service error %d: %s", e.Code, e.Message)
}

// Result accumulates the pages fetched for one query spec.
type Result struct {
	Features   []Feature
	Pages      int
	CapReached bool
}
