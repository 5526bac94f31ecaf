package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is an inclusive byte span of the source file.
type Range struct {
	Start int64
	End   int64
}

func (r Range) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange reads a Range header for a file of size bytes. Only the first
// span of a multi-range request is honoured; video elements never send
// more than one. A nil Range with nil error means serve the whole file.
func ParseRange(header string, size int64) (*Range, error) {
	if header == "" {
		return nil, nil
	}

	rangeSpec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	rangeSpec, _, _ = strings.Cut(rangeSpec, ",")
	first, last, ok := strings.Cut(strings.TrimSpace(rangeSpec), "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	if first == "" {
		return suffixRange(last, size)
	}

	start, err := parseOffset(first)
	if err != nil {
		return nil, err
	}
	end := size - 1
	if last != "" {
		if end, err = parseOffset(last); err != nil {
			return nil, err
		}
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}
	return &Range{Start: start, End: min(end, size-1)}, nil
}

// suffixRange handles "bytes=-N": the final N bytes.
func suffixRange(n string, size int64) (*Range, error) {
	length, err := parseOffset(n)
	if err != nil || length == 0 {
		return nil, ErrInvalidRange
	}
	if size == 0 {
		return nil, ErrUnsatisfiable
	}
	return &Range{Start: max(size-length, 0), End: size - 1}, nil
}

func parseOffset(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, ErrInvalidRange
	}
	return v, nil
}
