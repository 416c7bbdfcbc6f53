package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"dutree/internal/infrastructure/transcript"
)

// ErrPathOutsideBase is returned for paths that escape the recorder's base
var ErrPathOutsideBase = errors.New("path escapes base directory")

// FilesystemRecorder walks a real directory and writes down the shell
// session that would have listed it: "$ cd", "$ ls" and listing lines.
type FilesystemRecorder struct {
	basePath string
	exclude  []string
}

// Recording is a transcript produced from disk
type Recording struct {
	Source  *transcript.SliceSource
	Skipped []string // paths whose names cannot appear in a listing line
}

// NewFilesystemRecorder creates a recorder rooted at basePath. Entries whose
// names match exclude, ignoring case, are left out.
func NewFilesystemRecorder(basePath string, exclude []string) *FilesystemRecorder {
	return &FilesystemRecorder{basePath: basePath, exclude: exclude}
}

// sanitizePath prevents directory traversal attacks
func (r *FilesystemRecorder) sanitizePath(path string) (string, error) {
	cleaned := filepath.Clean(path)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if strings.HasPrefix(cleaned, "..") {
		return "", ErrPathOutsideBase
	}
	return cleaned, nil
}

func (r *FilesystemRecorder) excluded(name string) bool {
	for _, ex := range r.exclude {
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}

// Record walks path, relative to the base, and returns its transcript. The
// walked directory becomes the transcript's root.
func (r *FilesystemRecorder) Record(path string) (*Recording, error) {
	rel, err := r.sanitizePath(path)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(r.basePath, rel)

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", full, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("record %q: not a directory", full)
	}

	rec := &recording{lines: []string{"$ cd /"}}
	if err := r.walk(full, "", rec); err != nil {
		return nil, err
	}
	return &Recording{
		Source:  transcript.NewSliceSource(rec.lines),
		Skipped: rec.skipped,
	}, nil
}

type recording struct {
	lines   []string
	skipped []string
}

type listed struct {
	name  string
	isDir bool
	size  int64
}

func (r *FilesystemRecorder) walk(dir, relDir string, rec *recording) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %q: %w", dir, err)
	}

	items := make([]listed, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if r.excluded(name) {
			continue
		}
		if strings.ContainsFunc(name, unicode.IsSpace) {
			rec.skipped = append(rec.skipped, filepath.Join(relDir, name))
			continue
		}

		switch {
		case entry.IsDir():
			items = append(items, listed{name: name, isDir: true})
		case entry.Type().IsRegular():
			info, err := entry.Info()
			if err != nil {
				// Removed between ReadDir and Info
				continue
			}
			items = append(items, listed{name: name, size: info.Size()})
		}
		// Symlinks, sockets and devices hold no data of their own.
	}

	slices.SortFunc(items, func(a, b listed) int { return strings.Compare(a.name, b.name) })

	rec.lines = append(rec.lines, "$ ls")
	for _, it := range items {
		if it.isDir {
			rec.lines = append(rec.lines, "dir "+it.name)
		} else {
			rec.lines = append(rec.lines, strconv.FormatInt(it.size, 10)+" "+it.name)
		}
	}

	for _, it := range items {
		if !it.isDir {
			continue
		}
		rec.lines = append(rec.lines, "$ cd "+it.name)
		if err := r.walk(filepath.Join(dir, it.name), filepath.Join(relDir, it.name), rec); err != nil {
			return err
		}
		rec.lines = append(rec.lines, "$ cd ..")
	}
	return nil
}
