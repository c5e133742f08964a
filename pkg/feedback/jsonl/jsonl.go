// Package jsonl provides the default feedback store: a JSON Lines file opened
// in append mode.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/clusterlens/clusterlens/pkg/feedback"
)

// logFile is the part of *os.File the store writes through.
type logFile interface {
	io.Writer
	io.Seeker
	Sync() error
	Truncate(size int64) error
	Close() error
}

// Store appends one JSON object per line. Each record is marshalled in full and
// written with a single Write under the mutex, then synced to disk. A failed
// write is truncated away so the log never holds a partial line.
type Store struct {
	mu   sync.Mutex
	f    logFile
	path string
}

// New opens or creates the log at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("feedback log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &feedback.StorageError{Op: "create directory", Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, &feedback.StorageError{Op: "open", Err: err}
	}
	if err := dropTornTail(f); err != nil {
		f.Close()
		return nil, &feedback.StorageError{Op: "repair", Err: err}
	}

	return &Store{f: f, path: path}, nil
}

// dropTornTail truncates an unterminated final line left by a crash during an
// earlier write, so the next record starts on a fresh line. Such a line was
// never acknowledged to a caller.
func dropTornTail(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}

	keep, err := lastLineEnd(f, size)
	if err != nil {
		return err
	}
	return f.Truncate(keep)
}

// lastLineEnd returns the offset just past the last newline before size, or
// zero when there is none.
func lastLineEnd(f io.ReaderAt, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)
	for end := size; end > 0; {
		start := max(end-chunk, 0)
		n, err := f.ReadAt(buf[:end-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// Record appends r as a single line.
func (s *Store) Record(_ context.Context, r feedback.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	line, err := json.Marshal(r)
	if err != nil {
		return &feedback.StorageError{Op: "encode", Err: err}
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return &feedback.StorageError{Op: "write", Err: os.ErrClosed}
	}
	offset, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return &feedback.StorageError{Op: "seek", Err: err}
	}
	if _, err := s.f.Write(line); err != nil {
		if terr := s.f.Truncate(offset); terr != nil {
			err = fmt.Errorf("%w (truncating partial line: %w)", err, terr)
		}
		return &feedback.StorageError{Op: "write", Err: err}
	}
	if err := s.f.Sync(); err != nil {
		return &feedback.StorageError{Op: "sync", Err: err}
	}
	return nil
}

// List reads back the whole log.
func (s *Store) List(_ context.Context) ([]feedback.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadFile(s.path)
}

// Path is the log file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the log file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadFile parses the log at path. A missing file is an empty log.
func ReadFile(path string) ([]feedback.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &feedback.StorageError{Op: "open", Err: err}
	}
	defer f.Close()
	return ReadAll(f)
}

// ReadAll parses JSON Lines feedback records. Blank lines are skipped, and so
// is an unterminated final line that does not parse: that is a write torn by a
// crash, never an acknowledged record.
func ReadAll(r io.Reader) ([]feedback.Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var out []feedback.Record
	for line := 1; ; line++ {
		b, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, &feedback.StorageError{Op: "read", Err: err}
		}
		terminated := err == nil

		if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 {
			var rec feedback.Record
			if uerr := json.Unmarshal(trimmed, &rec); uerr != nil {
				if !terminated {
					break
				}
				return nil, fmt.Errorf("feedback log line %d: %w", line, uerr)
			}
			out = append(out, rec)
		}

		if !terminated {
			break
		}
	}
	return out, nil
}

var _ feedback.Store = (*Store)(nil)
