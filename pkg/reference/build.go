package reference

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clusterlens/clusterlens/pkg/vector"
)

// SourceRecord is one line of the embeddings JSONL consumed by Build.
type SourceRecord struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
}

// ReadSource decodes embeddings JSONL, one SourceRecord per line. Blank lines
// are skipped; duplicate ids are an error.
func ReadSource(r io.Reader) ([]SourceRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var out []SourceRecord
	seen := make(map[string]int)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}

		var rec SourceRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("line %d: missing id", line)
		}
		if prev, ok := seen[rec.ID]; ok {
			return nil, fmt.Errorf("line %d: duplicate id %q (first seen on line %d)", line, rec.ID, prev)
		}
		seen[rec.ID] = line
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	return out, nil
}

// ReadSourceFile opens path and calls ReadSource.
func ReadSourceFile(path string) ([]SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening embeddings file: %w", err)
	}
	defer f.Close()
	return ReadSource(f)
}

// labelValue accepts labels written either as JSON strings or numbers.
type labelValue string

func (l *labelValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = labelValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("label must be a string or number: %s", b)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*l = labelValue(strconv.FormatInt(i, 10))
		return nil
	}
	*l = labelValue(n.String())
	return nil
}

// ReadIDToLabel decodes a flat {"<id>": <label>} mapping. Numeric labels are
// converted to their decimal string form.
func ReadIDToLabel(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading id to label mapping: %w", err)
	}

	raw := map[string]labelValue{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing id to label mapping %s: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for id, l := range raw {
		out[id] = string(l)
	}
	return out, nil
}

// BuildOptions controls which source records enter the reference set.
type BuildOptions struct {
	// ExcludeLabels drops records carrying any of these labels.
	ExcludeLabels []string

	// SkipUnlabeled drops records with no label instead of failing.
	SkipUnlabeled bool

	// Now stamps the snapshot. Defaults to time.Now.
	Now func() time.Time
}

// BuildStats summarizes a Build.
type BuildStats struct {
	Kept      int
	Excluded  int
	Unlabeled int
}

// Build assembles a snapshot and labels file sharing a fresh build id. Source
// order is preserved for the records that are kept.
func Build(records []SourceRecord, idToLabel map[string]string, o BuildOptions) (*Snapshot, *LabelsFile, BuildStats, error) {
	stats := BuildStats{}
	if len(records) == 0 {
		return nil, nil, stats, vector.ErrEmptyIndex
	}

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	snap := &Snapshot{
		BuildID:   uuid.NewString(),
		CreatedAt: now(),
	}
	lf := &LabelsFile{
		BuildID: snap.BuildID,
		Labels:  map[string]string{},
	}

	for _, rec := range records {
		label, ok := idToLabel[rec.ID]
		if !ok {
			if o.SkipUnlabeled {
				stats.Unlabeled++
				continue
			}
			return nil, nil, stats, fmt.Errorf("id %q has no label in the mapping", rec.ID)
		}
		if slices.Contains(o.ExcludeLabels, label) {
			stats.Excluded++
			continue
		}
		if snap.Dimensions == 0 {
			snap.Dimensions = len(rec.Embedding)
		}
		if len(rec.Embedding) != snap.Dimensions || snap.Dimensions == 0 {
			return nil, nil, stats, fmt.Errorf("%w: id %q has %d components, expected %d",
				vector.ErrDimensionMismatch, rec.ID, len(rec.Embedding), snap.Dimensions)
		}
		if err := vector.CheckFinite(rec.Embedding); err != nil {
			return nil, nil, stats, fmt.Errorf("id %q: %w", rec.ID, err)
		}

		snap.IDs = append(snap.IDs, rec.ID)
		snap.Embeddings = append(snap.Embeddings, rec.Embedding)
		lf.Labels[rec.ID] = label
		stats.Kept++
	}

	if stats.Kept == 0 {
		return nil, nil, stats, vector.ErrEmptyIndex
	}
	return snap, lf, stats, nil
}
