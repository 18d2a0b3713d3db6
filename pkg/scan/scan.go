// Package scan selects upload candidates from a source directory.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Candidate is a file eligible for upload in the current run.
type Candidate struct {
	// Path is the full path of the file.
	Path string
	// Name is the base filename, used as the completion-log key.
	Name string
	// Size is the file size in bytes.
	Size int64
}

// Options control candidate selection.
type Options struct {
	// Extensions is the lowercase extension allow-list, without dots.
	Extensions []string
	// MaxFileSize is the exclusive size ceiling in bytes.
	MaxFileSize int64
	// ExcludeNames are exact filenames never selected (the completion log).
	ExcludeNames []string
	// Completed holds base filenames already uploaded in a prior run.
	Completed map[string]struct{}
}

// Select lists the immediate entries of dir and returns the candidates that
// pass every filter, in lexicographic name order. Skipped entries are logged
// at debug level with the reason. An empty result is not an error.
func Select(log logrus.FieldLogger, dir string, opts *Options) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	allowed := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	excluded := make(map[string]struct{}, len(opts.ExcludeNames))
	for _, name := range opts.ExcludeNames {
		excluded[name] = struct{}{}
	}

	var candidates []Candidate

	// os.ReadDir returns entries sorted by filename, which gives the
	// deterministic order the candidate list is specified to have.
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		if _, ok := excluded[name]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.WithField("file", full).WithError(err).Debug("Skipping unreadable entry")

			continue
		}

		if !info.Mode().IsRegular() {
			log.WithField("file", full).Debug("Skipping non-regular file")

			continue
		}

		if _, ok := allowed[extension(name)]; !ok {
			log.WithField("file", full).Debug("Skipping file with unlisted extension")

			continue
		}

		if _, ok := opts.Completed[name]; ok {
			log.WithField("file", full).Debug("Skipping already uploaded file")

			continue
		}

		if info.Size() >= opts.MaxFileSize {
			log.WithFields(logrus.Fields{
				"file": full,
				"size": info.Size(),
			}).Debug("Skipping oversized file")

			continue
		}

		candidates = append(candidates, Candidate{
			Path: full,
			Name: name,
			Size: info.Size(),
		})
	}

	return candidates, nil
}

// TotalSize returns the combined size of the candidates in bytes.
func TotalSize(candidates []Candidate) int64 {
	var total int64
	for _, c := range candidates {
		total += c.Size
	}

	return total
}

// extension returns the lowercase final dot-delimited suffix of name,
// or "" when the name has no extension.
func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}

	return strings.ToLower(name[idx+1:])
}
