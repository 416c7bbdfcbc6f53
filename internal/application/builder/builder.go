// Package builder reconstructs a directory tree from a shell transcript
// of "$ cd" / "$ ls" commands and their listing output.
package builder

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dutree/internal/domain/fstree"
	"dutree/internal/infrastructure/transcript"
)

// RootName is the name of the directory every transcript starts from
const RootName = "/"

// Stats describes the last build
type Stats struct {
	Lines        int `json:"lines"`
	Commands     int `json:"commands"`
	Listings     int `json:"listings"`
	DirsCreated  int `json:"dirsCreated"`
	FilesCreated int `json:"filesCreated"`
	Duplicates   int `json:"duplicates"`
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the logger used for build diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder runs the transcript state machine. A Builder is not safe for
// concurrent use; create one per goroutine.
type Builder struct {
	log   *zap.Logger
	stats Stats
}

// New creates a Builder
func New(opts ...Option) *Builder {
	b := &Builder{log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build builds a tree with a default Builder
func Build(src transcript.Source[string]) (*fstree.Directory, error) {
	return New().Build(src)
}

// Stats returns counters for the most recent Build
func (b *Builder) Stats() Stats { return b.stats }

type state int

const (
	navigating state = iota
	listing
)

// numbered is a transcript line with its 1-based position
type numbered struct {
	n    int
	text string
}

type numberer struct {
	src transcript.Source[string]
	n   int
}

func (s *numberer) Next() (numbered, bool) {
	text, ok := s.src.Next()
	if !ok {
		return numbered{}, false
	}
	s.n++
	return numbered{n: s.n, text: text}, true
}

// run holds the mutable state of one build
type run struct {
	b     *Builder
	stack []*fstree.Directory // stack[0] is always root
	lines *transcript.Lookahead[numbered]
}

func (r *run) cwd() *fstree.Directory { return r.stack[len(r.stack)-1] }

// Build consumes src until it is exhausted and returns the root directory.
// Any malformed line aborts the build and no tree is returned.
func (b *Builder) Build(src transcript.Source[string]) (*fstree.Directory, error) {
	b.stats = Stats{}
	root := fstree.NewDirectory(RootName)
	num := &numberer{src: src}
	r := &run{
		b:     b,
		stack: []*fstree.Directory{root},
		lines: transcript.NewLookahead[numbered](num),
	}

	st := navigating
	for {
		ln, ok := r.lines.Next()
		if !ok {
			break
		}
		p, err := parseLine(ln.text)
		if err == nil && p.kind != lineBlank {
			switch st {
			case navigating:
				st, err = r.navigate(p)
			case listing:
				st, err = r.list(ln, p)
			}
		}
		if err != nil {
			b.stats.Lines = num.n
			// A failed read may have cut the line short.
			if rerr := readErr(src); rerr != nil {
				return nil, rerr
			}
			b.log.Debug("transcript rejected", zap.Int("line", ln.n), zap.Error(err))
			return nil, &LineError{Line: ln.n, Text: ln.text, Err: err}
		}
	}
	b.stats.Lines = num.n

	if err := readErr(src); err != nil {
		return nil, err
	}

	b.log.Debug("transcript built",
		zap.Int("lines", b.stats.Lines),
		zap.Int("dirs", b.stats.DirsCreated),
		zap.Int("files", b.stats.FilesCreated),
		zap.Int64("size", root.Size()),
	)
	return root, nil
}

func readErr(src transcript.Source[string]) error {
	if es, ok := src.(interface{ Err() error }); ok {
		if err := es.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrRead, err)
		}
	}
	return nil
}

func (r *run) navigate(p line) (state, error) {
	if p.kind == lineListing {
		return navigating, ErrUnexpectedListing
	}
	r.b.stats.Commands++

	switch p.verb {
	case "cd":
		if len(p.args) != 1 {
			return navigating, fmt.Errorf("%w: cd takes one argument", ErrMalformedLine)
		}
		return navigating, r.cd(p.args[0])
	case "ls":
		if len(p.args) != 0 {
			return navigating, fmt.Errorf("%w: ls takes no arguments", ErrMalformedLine)
		}
		return listing, nil
	default:
		return navigating, fmt.Errorf("%w: %q", ErrUnknownCommand, p.verb)
	}
}

func (r *run) cd(target string) error {
	switch target {
	case "..":
		if len(r.stack) > 1 {
			r.stack = r.stack[:len(r.stack)-1]
		}
		return nil
	case RootName:
		r.stack = r.stack[:1]
		return nil
	}

	if err := validateName(target); err != nil {
		return err
	}
	cwd := r.cwd()
	if e, ok := cwd.Child(target); ok {
		dir, isDir := e.(*fstree.Directory)
		if !isDir {
			return fmt.Errorf("%w: cd into file %q", fstree.ErrKindConflict, target)
		}
		r.stack = append(r.stack, dir)
		return nil
	}

	dir := fstree.NewDirectory(target)
	if err := cwd.AddDir(dir); err != nil {
		return err
	}
	r.b.stats.DirsCreated++
	r.stack = append(r.stack, dir)
	return nil
}

// list handles one line of ls output. A command line ends the listing and
// is pushed back for the navigating state to read.
func (r *run) list(ln numbered, p line) (state, error) {
	if p.kind == lineCommand {
		r.lines.PutBack(ln)
		return navigating, nil
	}
	r.b.stats.Listings++

	if err := validateName(p.name); err != nil {
		return listing, err
	}
	cwd := r.cwd()

	if e, ok := cwd.Child(p.name); ok {
		if p.isDir != (e.Kind() == fstree.KindDir) {
			return listing, fmt.Errorf("%w: %q is a %s", fstree.ErrKindConflict, p.name, e.Kind())
		}
		if !p.isDir && e.Size() != p.size {
			r.b.log.Debug("size differs on relisting, keeping first",
				zap.String("path", fstree.PathOf(e)),
				zap.Int64("kept", e.Size()),
				zap.Int64("ignored", p.size),
			)
		}
		r.b.stats.Duplicates++
		return listing, nil
	}

	if p.isDir {
		if err := cwd.AddDir(fstree.NewDirectory(p.name)); err != nil {
			return listing, err
		}
		r.b.stats.DirsCreated++
		return listing, nil
	}
	if err := cwd.AddFile(fstree.NewFile(p.name, p.size)); err != nil {
		return listing, err
	}
	r.b.stats.FilesCreated++
	return listing, nil
}

func validateName(name string) error {
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", fstree.ErrInvalidName, name)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", fstree.ErrInvalidName, name)
	}
	return nil
}
