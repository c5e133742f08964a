package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LabelsFile is the JSON artifact mapping external ids to cluster labels.
type LabelsFile struct {
	BuildID string            `json:"build_id"`
	Labels  map[string]string `json:"labels"`
}

// ReadLabels decodes a labels file.
func ReadLabels(path string) (*LabelsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels file: %w", err)
	}

	lf := &LabelsFile{}
	if err := json.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing labels file %s: %w", path, err)
	}
	if lf.BuildID == "" {
		return nil, fmt.Errorf("%w: labels file %s has no build_id", ErrIntegrity, path)
	}
	if lf.Labels == nil {
		lf.Labels = map[string]string{}
	}
	return lf, nil
}

// WriteLabels writes lf to path, replacing any existing file atomically.
func WriteLabels(path string, lf *LabelsFile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding labels: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating labels directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing labels file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing labels file: %w", err)
	}
	return nil
}
