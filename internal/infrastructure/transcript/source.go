package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMaxLineBytes caps a single transcript line
const DefaultMaxLineBytes = 1024 * 1024

// ScannerSource reads lines from an io.Reader. Read errors end the
// sequence and are reported by Err.
type ScannerSource struct {
	sc   *bufio.Scanner
	line int
}

// NewScannerSource creates a line source over r. maxLine <= 0 uses
// DefaultMaxLineBytes.
func NewScannerSource(r io.Reader, maxLine int) *ScannerSource {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(4096, maxLine)), maxLine)
	return &ScannerSource{sc: sc}
}

func (s *ScannerSource) Next() (string, bool) {
	if !s.sc.Scan() {
		return "", false
	}
	s.line++
	return strings.TrimRight(s.sc.Text(), "\r"), true
}

// Line returns the 1-based number of the last line read
func (s *ScannerSource) Line() int { return s.line }

// Err returns the first non-EOF read error
func (s *ScannerSource) Err() error { return s.sc.Err() }

// SliceSource serves lines from memory
type SliceSource struct {
	lines []string
	pos   int
}

func NewSliceSource(lines []string) *SliceSource {
	return &SliceSource{lines: lines}
}

// FromString splits text into lines
func FromString(text string) *SliceSource {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return NewSliceSource(nil)
	}
	return NewSliceSource(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}

func (s *SliceSource) Next() (string, bool) {
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

// Lines returns every line the source holds, consumed or not
func (s *SliceSource) Lines() []string { return s.lines }

// Open opens a transcript file for reading. "-" means stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript %q: %w", path, err)
	}
	return f, nil
}
