package fstree

// Predicate selects directories during a search
type Predicate func(*Directory) bool

// SizeAtMost matches directories no larger than n
func SizeAtMost(n int64) Predicate {
	return func(d *Directory) bool { return d.Size() <= n }
}

// SizeAtLeast matches directories of at least n
func SizeAtLeast(n int64) Predicate {
	return func(d *Directory) bool { return d.Size() >= n }
}

// FindDirsBy returns the direct child directories matching pred, in name order
func (d *Directory) FindDirsBy(pred Predicate) []*Directory {
	var dirs []*Directory
	for _, name := range d.names {
		if dir, ok := d.children[name].(*Directory); ok && pred(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// FindDirsRecursBy searches the whole subtree below d, depth first. A
// matching directory comes before its matching descendants, and every
// directory is descended into whether it matched or not. d itself is not
// a candidate.
func (d *Directory) FindDirsRecursBy(pred Predicate) []*Directory {
	var dirs []*Directory
	d.findRecurs(pred, &dirs)
	return dirs
}

func (d *Directory) findRecurs(pred Predicate, out *[]*Directory) {
	for _, name := range d.names {
		dir, ok := d.children[name].(*Directory)
		if !ok {
			continue
		}
		if pred(dir) {
			*out = append(*out, dir)
		}
		dir.findRecurs(pred, out)
	}
}
