package fstree

import "testing"

func names(dirs []*Directory) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, d.Path())
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func all(*Directory) bool { return true }

func TestFindDirsBy(t *testing.T) {
	root, _, _, _ := sample(t)

	tests := []struct {
		name string
		pred Predicate
		want []string
	}{
		{"all", all, []string{"/a", "/d"}},
		{"at most 100000", SizeAtMost(100000), []string{"/a"}},
		{"at least 1000000", SizeAtLeast(1000000), []string{"/d"}},
		{"none", SizeAtMost(0), []string{}},
	}
	for _, tt := range tests {
		if got := names(root.FindDirsBy(tt.pred)); !equal(got, tt.want) {
			t.Errorf("%s: FindDirsBy = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFindDirsRecursBy(t *testing.T) {
	root, _, _, _ := sample(t)

	tests := []struct {
		name string
		pred Predicate
		want []string
	}{
		{"pre-order", all, []string{"/a", "/a/e", "/d"}},
		{"at most 100000", SizeAtMost(100000), []string{"/a", "/a/e"}},
		{"descends past non-matching parent", SizeAtMost(1000), []string{"/a/e"}},
		{"at least 4000000", SizeAtLeast(4000000), []string{"/d"}},
	}
	for _, tt := range tests {
		if got := names(root.FindDirsRecursBy(tt.pred)); !equal(got, tt.want) {
			t.Errorf("%s: FindDirsRecursBy = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFindDirsRecursBySiblingOrder(t *testing.T) {
	root := NewDirectory("/")
	for _, n := range []string{"c", "a", "b"} {
		d := NewDirectory(n)
		must(t, root.AddDir(d))
		must(t, d.AddDir(NewDirectory("x")))
	}
	want := []string{"/a", "/a/x", "/b", "/b/x", "/c", "/c/x"}
	if got := names(root.FindDirsRecursBy(all)); !equal(got, want) {
		t.Errorf("FindDirsRecursBy = %v, want %v", got, want)
	}
}

func TestPredicates(t *testing.T) {
	d := NewDirectory("d")
	must(t, d.AddFile(NewFile("f", 100)))

	if !SizeAtMost(100)(d) || SizeAtMost(99)(d) {
		t.Error("SizeAtMost boundary is wrong")
	}
	if !SizeAtLeast(100)(d) || SizeAtLeast(101)(d) {
		t.Error("SizeAtLeast boundary is wrong")
	}
}
