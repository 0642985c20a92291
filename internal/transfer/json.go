package transfer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/talentflow/internal/domain"
)

// ExportJSON writes records as a JSON array with two-space indentation.
// An empty collection is written as [] rather than null.
func ExportJSON[T domain.Record](w io.Writer, records []T) error {
	if records == nil {
		records = []T{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}
