package output

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats listings as a YAML document.
type YAMLFormatter struct{}

// Format marshals l.Items. A nil item set prints as an empty sequence.
func (f *YAMLFormatter) Format(l Listing) (string, error) {
	items := l.Items
	if items == nil {
		items = []any{}
	}

	data, err := yaml.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", l.Kind, err)
	}
	return string(data), nil
}
