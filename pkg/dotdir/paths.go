package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	referenceDir = "reference"
	snapshotFile = "snapshot.db"
	labelsFile   = "labels.json"
	feedbackFile = "feedback.jsonl"
)

// Paths are the default artifact locations inside a resolved .clusterlens/
// directory. Config values, when set, always win over these.
type Paths struct {
	Root     string
	Snapshot string
	Labels   string
	Feedback string
}

// Paths resolves the target directory (see Target) and returns the default
// artifact locations inside it. The reference/ subdirectory is created so
// "index build" can write into it directly.
func (m *Manager) Paths(overrideDir string) (*Paths, error) {
	root, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	ref := filepath.Join(root, referenceDir)
	if err := os.MkdirAll(ref, 0o755); err != nil {
		return nil, fmt.Errorf("creating reference directory %s: %w", ref, err)
	}

	return &Paths{
		Root:     root,
		Snapshot: filepath.Join(ref, snapshotFile),
		Labels:   filepath.Join(ref, labelsFile),
		Feedback: filepath.Join(root, feedbackFile),
	}, nil
}

// Or returns configured when it is set, otherwise fallback.
func Or(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
