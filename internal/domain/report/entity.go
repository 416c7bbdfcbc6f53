package report

import "time"

// Candidate is the directory chosen for deletion
type Candidate struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Report is the outcome of analyzing one transcript
type Report struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`   // Transcript name (file name or caller label)
	Digest    string    `json:"digest"` // Hex BLAKE2b-256 of the transcript bytes
	CreatedAt time.Time `json:"createdAt"`

	// Tree shape
	TotalSize int64 `json:"totalSize"`
	DirCount  int   `json:"dirCount"`
	FileCount int   `json:"fileCount"`
	Lines     int   `json:"lines"`

	// Sum of directories at or below Threshold
	Threshold int64 `json:"threshold"`
	SumAtMost int64 `json:"sumAtMost"`

	// Smallest directory to delete to reach Required free space
	Capacity        int64      `json:"capacity"`
	Required        int64      `json:"required"`
	Available       int64      `json:"available"`
	Needed          int64      `json:"needed"`
	DeleteCandidate *Candidate `json:"deleteCandidate"` // nil when no directory qualifies
}

// HasCandidate reports whether a deletion candidate was found
func (r *Report) HasCandidate() bool {
	return r.DeleteCandidate != nil
}

// Validate checks the fields a repository needs
func (r *Report) Validate() error {
	if r == nil || r.Name == "" {
		return ErrInvalidReport
	}
	return nil
}
