package output

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONFormatter formats listings as indented JSON.
type JSONFormatter struct{}

// Format marshals l.Items. A nil item set prints as an empty array.
func (f *JSONFormatter) Format(l Listing) (string, error) {
	items := l.Items
	if items == nil {
		items = []any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", l.Kind, err)
	}
	return buf.String(), nil
}
