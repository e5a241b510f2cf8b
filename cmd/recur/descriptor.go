package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/rezkam/cashflow/internal/recurrence"
)

// defaultDescriptorFile is looked up in the XDG config directories when no -f is given.
const defaultDescriptorFile = "cashflow/recurrence.yaml"

var errEmptyDescriptor = errors.New("descriptor file is empty")

// resolvePath returns path, or the first XDG config file named defaultDescriptorFile.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	found, err := xdg.SearchConfigFile(defaultDescriptorFile)
	if err != nil {
		return "", fmt.Errorf("no -f given and %s not found: %w", defaultDescriptorFile, err)
	}
	return found, nil
}

func loadDescriptor(path string) (recurrence.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recurrence.Descriptor{}, fmt.Errorf("failed to read descriptor: %w", err)
	}
	d, err := parseDescriptor(data)
	if err != nil {
		return recurrence.Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// parseDescriptor accepts YAML or JSON (a YAML subset). The document is
// re-encoded as JSON so the descriptor's own codec does the field mapping.
func parseDescriptor(data []byte) (recurrence.Descriptor, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return recurrence.Descriptor{}, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if raw == nil {
		return recurrence.Descriptor{}, errEmptyDescriptor
	}

	encoded, err := json.Marshal(jsonValue(raw))
	if err != nil {
		return recurrence.Descriptor{}, fmt.Errorf("failed to parse descriptor: %w", err)
	}

	var d recurrence.Descriptor
	if err := json.Unmarshal(encoded, &d); err != nil {
		return recurrence.Descriptor{}, err
	}
	return d, nil
}

// jsonValue rewrites YAML-only shapes into values encoding/json can marshal.
func jsonValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = jsonValue(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = jsonValue(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = jsonValue(item)
		}
		return v
	case time.Time:
		return v.Format(time.DateOnly)
	default:
		return v
	}
}
