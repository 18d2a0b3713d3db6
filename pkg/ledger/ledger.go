// Package ledger persists the set of filenames already uploaded, so that
// interrupted or repeated runs never re-upload a confirmed file.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the completion-log filename, created inside the scanned
// directory. Callers must exclude it from candidate selection.
const FileName = ".uploaded"

// Ledger is an append-only, line-oriented completion log. The on-disk format
// is one base filename per line, newline terminated, and is never rewritten
// or compacted: a crash mid-append leaves all prior entries intact.
//
// Append is safe for concurrent use. Membership is a set test, so duplicate
// lines written by earlier runs are tolerated.
type Ledger struct {
	mu   sync.Mutex
	file *os.File
	path string
	seen map[string]struct{}
}

// Open loads the completion log inside dir, creating an empty one if it does
// not exist yet.
func Open(dir string) (*Ledger, error) {
	path := filepath.Join(dir, FileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening completion log %s: %w", path, err)
	}

	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := scanner.Text()
		if name == "" {
			continue
		}

		seen[name] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("reading completion log %s: %w", path, err)
	}

	return &Ledger{
		file: f,
		path: path,
		seen: seen,
	}, nil
}

// Contains reports whether name was already recorded as uploaded.
func (l *Ledger) Contains(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[name]

	return ok
}

// Snapshot returns a copy of the recorded name set.
func (l *Ledger) Snapshot() map[string]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]struct{}, len(l.seen))
	for name := range l.seen {
		snapshot[name] = struct{}{}
	}

	return snapshot
}

// Len returns the number of distinct recorded names.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen)
}

// Append durably records name as uploaded. It is idempotent: recording a
// name that is already present is a no-op. The line is written with a single
// write call under the ledger mutex, so concurrent appends cannot interleave.
func (l *Ledger) Append(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[name]; ok {
		return nil
	}

	if _, err := l.file.WriteString(name + "\n"); err != nil {
		return fmt.Errorf("appending %q to completion log %s: %w", name, l.path, err)
	}

	l.seen[name] = struct{}{}

	return nil
}

// Path returns the completion-log file path.
func (l *Ledger) Path() string {
	return l.path
}

// Close releases the underlying file handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing completion log %s: %w", l.path, err)
	}

	return nil
}
