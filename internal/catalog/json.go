package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads and parses a services.json document from path.
func Load(path string) (*StoredData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a services.json document from raw bytes.
func Parse(data []byte) (*StoredData, error) {
	var d StoredData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &d, nil
}

// Save canonicalizes and writes the catalog to path as indented JSON.
func Save(path string, d *StoredData) error {
	d.Canonicalize()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}
