package fstree

import (
	"fmt"
	"io/fs"
	"math"
	"slices"
	"strings"
)

// Kind distinguishes files from directories
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is the capability set shared by files and directories
type Entry interface {
	// Name is the entry's name within its parent directory.
	Name() string

	// Size is the file size, or the aggregate size for a directory.
	Size() int64

	// Parent is the containing directory, or nil for a root or an
	// entry that has not been attached yet.
	Parent() *Directory

	Kind() Kind
}

// File is a leaf entry with a fixed size
type File struct {
	name   string
	size   int64
	parent *Directory
}

// NewFile creates an unattached file
func NewFile(name string, size int64) *File {
	return &File{name: name, size: size}
}

func (f *File) Name() string       { return f.name }
func (f *File) Size() int64        { return f.size }
func (f *File) Parent() *Directory { return f.parent }
func (f *File) Kind() Kind         { return KindFile }

// Directory owns its children and keeps a running aggregate of their sizes.
// The parent pointer is a back-reference only; ownership runs top-down
// through the children map.
type Directory struct {
	name     string
	size     int64
	children map[string]Entry
	names    []string // sorted keys of children
	parent   *Directory
}

// NewDirectory creates an empty, parentless directory
func NewDirectory(name string) *Directory {
	return &Directory{
		name:     name,
		children: make(map[string]Entry),
	}
}

func (d *Directory) Name() string       { return d.name }
func (d *Directory) Size() int64        { return d.size }
func (d *Directory) Parent() *Directory { return d.parent }
func (d *Directory) Kind() Kind         { return KindDir }

// AddDir attaches child under d and grows every ancestor by child's size.
// An existing child with the same name is replaced.
func (d *Directory) AddDir(child *Directory) error {
	if child == nil {
		return ErrNilEntry
	}
	if err := d.checkAttach(child.name, child.parent); err != nil {
		return err
	}
	for a := d; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("%w: %q", ErrCycle, child.name)
		}
	}

	if err := d.attach(child.name, child, child.size); err != nil {
		return err
	}
	child.parent = d
	return nil
}

// AddFile attaches child under d and grows every ancestor by child's size.
// An existing child with the same name is replaced.
func (d *Directory) AddFile(child *File) error {
	if child == nil {
		return ErrNilEntry
	}
	if child.size < 0 {
		return fmt.Errorf("%w: %q has size %d", ErrNegativeSize, child.name, child.size)
	}
	if err := d.checkAttach(child.name, child.parent); err != nil {
		return err
	}

	if err := d.attach(child.name, child, child.size); err != nil {
		return err
	}
	child.parent = d
	return nil
}

func (d *Directory) checkAttach(name string, parent *Directory) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if parent != nil {
		return fmt.Errorf("%w: %q is already in %q", ErrAlreadyAttached, name, parent.Path())
	}
	return nil
}

// attach stores e under name. Nothing changes when an ancestor's size would
// overflow.
func (d *Directory) attach(name string, e Entry, size int64) error {
	delta := size
	old, replacing := d.children[name]
	if replacing {
		delta -= old.Size()
	}
	if delta > 0 {
		for a := d; a != nil; a = a.parent {
			if a.size > math.MaxInt64-delta {
				return fmt.Errorf("%w: adding %d to %q", ErrSizeOverflow, delta, a.Path())
			}
		}
	}

	if replacing {
		detach(old)
	} else {
		i, _ := slices.BinarySearch(d.names, name)
		d.names = slices.Insert(d.names, i, name)
	}
	d.children[name] = e
	d.grow(delta)
	return nil
}

// grow adds delta to d and each of its ancestors, once each.
func (d *Directory) grow(delta int64) {
	if delta == 0 {
		return
	}
	for a := d; a != nil; a = a.parent {
		a.size += delta
	}
}

func detach(e Entry) {
	switch v := e.(type) {
	case *File:
		v.parent = nil
	case *Directory:
		v.parent = nil
	}
}

// Contains reports whether d has a direct child with the given name
func (d *Directory) Contains(name string) bool {
	_, ok := d.children[name]
	return ok
}

// Child returns the direct child with the given name
func (d *Directory) Child(name string) (Entry, bool) {
	e, ok := d.children[name]
	return e, ok
}

// GetDir returns the direct child directory with the given name. It
// reports false when the name is absent or names a file.
func (d *Directory) GetDir(name string) (*Directory, bool) {
	dir, ok := d.children[name].(*Directory)
	return dir, ok
}

// Children returns the direct children in name order
func (d *Directory) Children() []Entry {
	out := make([]Entry, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.children[name])
	}
	return out
}

// Len returns the number of direct children
func (d *Directory) Len() int { return len(d.names) }

// Walk visits d and its descendants in pre-order, siblings in name order.
// Returning fs.SkipDir from fn for a directory skips its contents; for a
// file it skips the file's remaining siblings.
func (d *Directory) Walk(fn func(e Entry, depth int) error) error {
	err := d.walk(fn, 0)
	if err == fs.SkipDir {
		return nil
	}
	return err
}

func (d *Directory) walk(fn func(e Entry, depth int) error, depth int) error {
	if err := fn(d, depth); err != nil {
		return err
	}
	for _, name := range d.names {
		switch c := d.children[name].(type) {
		case *Directory:
			if err := c.walk(fn, depth+1); err != nil && err != fs.SkipDir {
				return err
			}
		default:
			if err := fn(c, depth+1); err == fs.SkipDir {
				return nil
			} else if err != nil {
				return err
			}
		}
	}
	return nil
}

// Counts returns the number of directories and files beneath d, d excluded
func (d *Directory) Counts() (dirs, files int) {
	_ = d.Walk(func(e Entry, depth int) error {
		if depth == 0 {
			return nil
		}
		if e.Kind() == KindDir {
			dirs++
		} else {
			files++
		}
		return nil
	})
	return dirs, files
}

// Path returns the slash-separated path of d from its root
func (d *Directory) Path() string { return PathOf(d) }

// PathOf builds the absolute path of e by following parent links. A root
// directory has the path "/".
func PathOf(e Entry) string {
	var parts []string
	for cur := e; cur.Parent() != nil; cur = cur.Parent() {
		parts = append(parts, cur.Name())
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}
