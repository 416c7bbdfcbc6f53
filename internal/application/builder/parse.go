package builder

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	promptMarker = "$"
	dirMarker    = "dir"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineCommand
	lineListing
)

// line is one classified transcript line
type line struct {
	kind lineKind

	// command lines
	verb string
	args []string

	// listing lines
	isDir bool
	size  int64
	name  string
}

// parseLine classifies a transcript line. Commands look like
// "$ <verb> [args]", listings like "dir <name>" or "<size> <name>".
func parseLine(text string) (line, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return line{kind: lineBlank}, nil
	}

	if fields[0] == promptMarker {
		if len(fields) < 2 {
			return line{}, fmt.Errorf("%w: prompt without command", ErrMalformedLine)
		}
		return line{kind: lineCommand, verb: fields[1], args: fields[2:]}, nil
	}

	if len(fields) != 2 {
		return line{}, fmt.Errorf("%w: want \"<size|dir> <name>\"", ErrMalformedLine)
	}
	if fields[0] == dirMarker {
		return line{kind: lineListing, isDir: true, name: fields[1]}, nil
	}

	// bitSize 63 keeps the value inside int64
	size, err := strconv.ParseUint(fields[0], 10, 63)
	if err != nil {
		return line{}, fmt.Errorf("%w: %q", ErrInvalidSize, fields[0])
	}
	return line{kind: lineListing, size: int64(size), name: fields[1]}, nil
}
