// Package labels maps reference positions to cluster labels.
package labels

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownID is returned when an ordered id has no label mapping.
	ErrUnknownID = errors.New("reference id has no cluster label")

	// ErrOutOfRange is returned when resolving a position outside the table.
	ErrOutOfRange = errors.New("position out of range")
)

// Table is an immutable position to label lookup. It is safe for concurrent use.
type Table struct {
	labels []string
}

// Build creates a table whose entry i is the label of orderedIDs[i].
// orderedIDs must be the same sequence the vector index was built from.
func Build(orderedIDs []string, idToLabel map[string]string) (*Table, error) {
	out := make([]string, len(orderedIDs))
	for pos, id := range orderedIDs {
		label, ok := idToLabel[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %q at position %d", ErrUnknownID, id, pos)
		}
		out[pos] = label
	}
	return &Table{labels: out}, nil
}

// Resolve returns the label stored at position.
func (t *Table) Resolve(position int) (string, error) {
	if position < 0 || position >= len(t.labels) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, position, len(t.labels))
	}
	return t.labels[position], nil
}

// Len is the number of entries.
func (t *Table) Len() int {
	return len(t.labels)
}

// Labels returns the distinct labels in order of first appearance.
func (t *Table) Labels() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range t.labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Counts returns how many reference points carry each label.
func (t *Table) Counts() map[string]int {
	out := make(map[string]int)
	for _, l := range t.labels {
		out[l]++
	}
	return out
}
