package builder

import (
	"errors"
	"io"
	"strings"
	"testing"

	"dutree/internal/domain/fstree"
	"dutree/internal/infrastructure/transcript"
)

const sample = `$ cd /
$ ls
dir a
14848514 b.txt
8504156 c.dat
dir d
$ cd a
$ ls
dir e
29116 f
2557 g
62596 h.lst
$ cd e
$ ls
584 i
$ cd ..
$ cd ..
$ cd d
$ ls
4060174 j
8033020 d.log
5626152 d.ext
7214296 k
`

func build(t *testing.T, text string) *fstree.Directory {
	t.Helper()
	root, err := Build(transcript.FromString(text))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return root
}

func dir(t *testing.T, root *fstree.Directory, path ...string) *fstree.Directory {
	t.Helper()
	cur := root
	for _, p := range path {
		next, ok := cur.GetDir(p)
		if !ok {
			t.Fatalf("no directory %q under %s", p, cur.Path())
		}
		cur = next
	}
	return cur
}

// checkInvariant verifies that every directory's size is the sum of
// what is attached beneath it.
func checkInvariant(t *testing.T, d *fstree.Directory) int64 {
	t.Helper()
	var sum int64
	for _, c := range d.Children() {
		if sub, ok := c.(*fstree.Directory); ok {
			sum += checkInvariant(t, sub)
		} else {
			sum += c.Size()
		}
	}
	if d.Size() != sum {
		t.Errorf("%s: Size() = %d, want %d", d.Path(), d.Size(), sum)
	}
	return sum
}

func TestBuildSample(t *testing.T) {
	root := build(t, sample)

	tests := []struct {
		path []string
		want int64
	}{
		{nil, 48381165},
		{[]string{"a"}, 94853},
		{[]string{"a", "e"}, 584},
		{[]string{"d"}, 24933642},
	}
	for _, tt := range tests {
		if got := dir(t, root, tt.path...).Size(); got != tt.want {
			t.Errorf("size of /%s = %d, want %d", strings.Join(tt.path, "/"), got, tt.want)
		}
	}
	checkInvariant(t, root)

	if root.Name() != RootName || root.Parent() != nil {
		t.Errorf("root = %q with parent %v", root.Name(), root.Parent())
	}
}

func TestBuildStats(t *testing.T) {
	b := New()
	if _, err := b.Build(transcript.FromString(sample)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := b.Stats()
	want := Stats{
		Lines:        23,
		Commands:     10,
		Listings:     13,
		DirsCreated:  3,
		FilesCreated: 10,
		Duplicates:   0,
	}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCdRootAndParent(t *testing.T) {
	root := build(t, `$ cd ..
$ cd ..
$ ls
1 top
$ cd x
$ cd y
$ cd z
$ cd /
$ ls
2 again
$ cd x
$ cd ..
$ ls
4 last
`)
	if root.Size() != 7 {
		t.Errorf("root.Size() = %d, want 7", root.Size())
	}
	for _, name := range []string{"top", "again", "last", "x"} {
		if !root.Contains(name) {
			t.Errorf("root should contain %q", name)
		}
	}
	// cd .. at the root must not escape it, and cd / must land on the same root.
	if dir(t, root, "x", "y", "z").Len() != 0 {
		t.Error("z should be empty")
	}
}

func TestCdReusesListedDirectory(t *testing.T) {
	root := build(t, `$ ls
dir a
$ cd a
$ ls
10 f
`)
	if root.Len() != 1 {
		t.Fatalf("root has %d children, want 1", root.Len())
	}
	if got := dir(t, root, "a").Size(); got != 10 {
		t.Errorf("a.Size() = %d, want 10", got)
	}
	if root.Size() != 10 {
		t.Errorf("root.Size() = %d, want 10", root.Size())
	}
}

func TestListingAfterCdCreatedDir(t *testing.T) {
	root := build(t, `$ cd a
$ ls
5 f
$ cd /
$ ls
dir a
3 g
`)
	if root.Len() != 2 || root.Size() != 8 {
		t.Errorf("root: %d children, size %d; want 2, 8", root.Len(), root.Size())
	}
	checkInvariant(t, root)
}

func TestRelistingIsIdempotent(t *testing.T) {
	once := build(t, sample)
	twice := build(t, sample+sample)

	if once.Size() != twice.Size() {
		t.Errorf("root size %d after relisting, want %d", twice.Size(), once.Size())
	}
	od, of := once.Counts()
	td, tf := twice.Counts()
	if od != td || of != tf {
		t.Errorf("counts %d/%d after relisting, want %d/%d", td, tf, od, of)
	}

	b := New()
	if _, err := b.Build(transcript.FromString(sample + sample)); err != nil {
		t.Fatal(err)
	}
	if b.Stats().Duplicates != 13 {
		t.Errorf("Duplicates = %d, want 13", b.Stats().Duplicates)
	}
}

func TestRelistingWithDifferentSizeKeepsFirst(t *testing.T) {
	root := build(t, `$ ls
10 f
$ ls
99 f
`)
	if root.Size() != 10 {
		t.Errorf("root.Size() = %d, want 10", root.Size())
	}
}

func TestBlankLines(t *testing.T) {
	root := build(t, "\n$ ls\n\n5 f\n\n$ cd a\n")
	if root.Size() != 5 || root.Len() != 2 {
		t.Errorf("root: size %d, %d children", root.Size(), root.Len())
	}
}

func TestEmptyTranscript(t *testing.T) {
	root := build(t, "")
	if root.Size() != 0 || root.Len() != 0 {
		t.Error("empty transcript should yield an empty root")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
		want error
	}{
		{"unknown command", "$ ls\n1 a\n$ rm a\n", 3, ErrUnknownCommand},
		{"bare prompt", "$\n", 1, ErrMalformedLine},
		{"cd without target", "$ cd\n", 1, ErrMalformedLine},
		{"cd with two targets", "$ cd a b\n", 1, ErrMalformedLine},
		{"ls with argument", "$ ls -l\n", 1, ErrMalformedLine},
		{"bad size", "$ ls\nabc f\n", 2, ErrInvalidSize},
		{"negative size", "$ ls\n-5 f\n", 2, ErrInvalidSize},
		{"overflowing size", "$ ls\n9223372036854775808 f\n", 2, ErrInvalidSize},
		{"too many fields", "$ ls\n12 my file\n", 2, ErrMalformedLine},
		{"listing before ls", "$ cd /\ndir a\n", 2, ErrUnexpectedListing},
		{"listing after cd", "$ ls\n1 f\n$ cd a\n2 g\n", 4, ErrUnexpectedListing},
		{"file then dir", "$ ls\n1 x\ndir x\n", 3, fstree.ErrKindConflict},
		{"dir then file", "$ ls\ndir x\n1 x\n", 3, fstree.ErrKindConflict},
		{"cd into file", "$ ls\n1 x\n$ cd x\n", 3, fstree.ErrKindConflict},
		{"slash in name", "$ cd a/b\n", 1, fstree.ErrInvalidName},
		{"dot name", "$ ls\ndir .\n", 2, fstree.ErrInvalidName},
		{"total overflows", "$ cd a\n$ ls\n4611686018427387904 x\n4611686018427387904 y\n", 4, fstree.ErrSizeOverflow},
	}
	for _, tt := range tests {
		root, err := Build(transcript.FromString(tt.text))
		if root != nil {
			t.Errorf("%s: got a tree alongside error %v", tt.name, err)
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
			continue
		}
		var le *LineError
		if !errors.As(err, &le) {
			t.Errorf("%s: err %T is not a *LineError", tt.name, err)
			continue
		}
		if le.Line != tt.line {
			t.Errorf("%s: line = %d, want %d", tt.name, le.Line, tt.line)
		}
	}
}

type failingReader struct{ data string }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.data == "" {
		return 0, io.ErrUnexpectedEOF
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestBuildReadError(t *testing.T) {
	src := transcript.NewScannerSource(&failingReader{data: "$ ls\n1 f\n"}, 0)
	_, err := Build(src)
	if !errors.Is(err, io.ErrUnexpectedEOF) || !errors.Is(err, ErrRead) {
		t.Errorf("err = %v, want %v wrapped in %v", err, io.ErrUnexpectedEOF, ErrRead)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		text string
		want line
	}{
		{"   ", line{kind: lineBlank}},
		{"$ cd /", line{kind: lineCommand, verb: "cd", args: []string{"/"}}},
		{"$ ls", line{kind: lineCommand, verb: "ls", args: []string{}}},
		{"dir a", line{kind: lineListing, isDir: true, name: "a"}},
		{"  584\ti ", line{kind: lineListing, size: 584, name: "i"}},
		{"0 empty", line{kind: lineListing, size: 0, name: "empty"}},
	}
	for _, tt := range tests {
		got, err := parseLine(tt.text)
		if err != nil {
			t.Errorf("parseLine(%q): %v", tt.text, err)
			continue
		}
		if got.kind != tt.want.kind || got.verb != tt.want.verb || got.isDir != tt.want.isDir ||
			got.size != tt.want.size || got.name != tt.want.name ||
			strings.Join(got.args, " ") != strings.Join(tt.want.args, " ") {
			t.Errorf("parseLine(%q) = %+v, want %+v", tt.text, got, tt.want)
		}
	}
}
