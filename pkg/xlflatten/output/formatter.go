// Package output serializes extraction results to JSON, in whole documents
// for batch results and incrementally for streamed chunks.
package output

import (
	"encoding/json"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
)

// WorkbookToJSON serializes a workbook result.
func WorkbookToJSON(result *models.WorkbookResult, pretty bool) ([]byte, error) {
	return marshal(result, pretty)
}

// SheetToJSON serializes a single sheet result.
func SheetToJSON(result *models.SheetResult, pretty bool) ([]byte, error) {
	return marshal(result, pretty)
}

func marshal(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
