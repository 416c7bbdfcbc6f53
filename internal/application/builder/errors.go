package builder

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand    = errors.New("unknown command")
	ErrMalformedLine     = errors.New("malformed line")
	ErrInvalidSize       = errors.New("invalid file size")
	ErrUnexpectedListing = errors.New("listing output outside of ls")
	ErrRead              = errors.New("read transcript")
)

// LineError ties a build failure to the transcript line that caused it
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }
