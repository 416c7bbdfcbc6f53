package analysis

import (
	"errors"
	"math"

	"dutree/internal/domain/fstree"
)

// ErrNoCandidate means no directory is large enough to free the space needed
var ErrNoCandidate = errors.New("no directory frees enough space")

const (
	DefaultThreshold int64 = 100_000
	DefaultCapacity  int64 = 70_000_000
	DefaultRequired  int64 = 30_000_000
)

// Params holds the constants of both queries
type Params struct {
	Threshold int64 // largest directory size counted by SumDirsAtMost
	Capacity  int64 // total device size
	Required  int64 // free space SmallestDirToFree must reach
}

// DefaultParams returns the standard query constants
func DefaultParams() Params {
	return Params{
		Threshold: DefaultThreshold,
		Capacity:  DefaultCapacity,
		Required:  DefaultRequired,
	}
}

// SumDirsAtMost sums the sizes of every directory below root whose size is
// at most threshold. Nested matches are counted at each level, so the sum
// saturates at math.MaxInt64.
func SumDirsAtMost(root *fstree.Directory, threshold int64) int64 {
	var sum int64
	for _, d := range root.FindDirsRecursBy(fstree.SizeAtMost(threshold)) {
		sum = subSat(sum, -d.Size())
	}
	return sum
}

// Available returns the free space left on a device of the given capacity
// holding root. It is negative when root does not fit.
func Available(root *fstree.Directory, capacity int64) int64 {
	return subSat(capacity, root.Size())
}

// Needed returns how much must be freed for required bytes to be available
// on a device of the given capacity holding root. The result saturates at
// math.MaxInt64.
func Needed(root *fstree.Directory, capacity, required int64) int64 {
	return max(0, subSat(required, Available(root, capacity)))
}

// subSat returns a-b clamped to the int64 range.
func subSat(a, b int64) int64 {
	switch {
	case b < 0 && a > math.MaxInt64+b:
		return math.MaxInt64
	case b > 0 && a < math.MinInt64+b:
		return math.MinInt64
	}
	return a - b
}

// SmallestDirToFree returns the smallest directory, root included, whose
// deletion frees at least the space needed. Ties go to the directory found
// first in pre-order.
func SmallestDirToFree(root *fstree.Directory, capacity, required int64) (*fstree.Directory, int64, error) {
	needed := Needed(root, capacity, required)
	pred := fstree.SizeAtLeast(needed)

	var best *fstree.Directory
	if pred(root) {
		best = root
	}
	for _, d := range root.FindDirsRecursBy(pred) {
		if best == nil || d.Size() < best.Size() {
			best = d
		}
	}
	if best == nil {
		return nil, needed, ErrNoCandidate
	}
	return best, needed, nil
}

// ErrInvalidParams rejects negative query constants
var ErrInvalidParams = errors.New("query parameters must not be negative")

// Validate checks that every constant is non-negative
func (p Params) Validate() error {
	if p.Threshold < 0 || p.Capacity < 0 || p.Required < 0 {
		return ErrInvalidParams
	}
	return nil
}
