package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses facility records from a JSON array.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed facilities.
func (p *JSONParser) Parse(r io.Reader) ([]RawFacility, error) {
	var facilities []RawFacility

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&facilities); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range facilities {
		facilities[i].LineNum = i + 1
	}

	return facilities, nil
}
