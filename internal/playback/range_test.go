package playback

import (
	"errors"
	"testing"
)

func TestParseRange_Satisfiable(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		want   Range
	}{
		{"open start", "bytes=0-", 1000, Range{0, 999}},
		{"webkit probe", "bytes=0-1", 1000, Range{0, 1}},
		{"seek to middle", "bytes=400-", 1000, Range{400, 999}},
		{"end clamped to file", "bytes=900-5000", 1000, Range{900, 999}},
		{"tail for moov atom", "bytes=-100", 1000, Range{900, 999}},
		{"tail longer than file", "bytes=-4096", 10, Range{0, 9}},
		{"tail exactly file", "bytes=-10", 10, Range{0, 9}},
		{"space around span", "bytes= 10-19 ", 1000, Range{10, 19}},
		{"only first span of many", "bytes=0-9, 50-59, 90-", 1000, Range{0, 9}},
		{"later spans not parsed", "bytes=5-6,garbage", 1000, Range{5, 6}},
		{"last byte", "bytes=999-999", 1000, Range{999, 999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if err != nil {
				t.Fatalf("ParseRange(%q) error = %v", tt.header, err)
			}
			if got == nil {
				t.Fatalf("ParseRange(%q) = nil", tt.header)
			}
			if *got != tt.want {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.header, *got, tt.want)
			}
		})
	}
}

func TestParseRange_NoHeaderMeansWholeFile(t *testing.T) {
	got, err := ParseRange("", 1000)
	if got != nil || err != nil {
		t.Errorf("ParseRange(\"\") = %v, %v; want nil, nil", got, err)
	}
}

func TestParseRange_Refused(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		wantErr error
	}{
		{"start at size", "bytes=1000-", 1000, ErrUnsatisfiable},
		{"end before start", "bytes=20-10", 1000, ErrUnsatisfiable},
		{"empty source", "bytes=0-", 0, ErrUnsatisfiable},
		{"tail of empty source", "bytes=-1", 0, ErrUnsatisfiable},

		{"missing unit", "0-10", 1000, ErrInvalidRange},
		{"other unit", "items=0-10", 1000, ErrInvalidRange},
		{"no separator", "bytes=10", 1000, ErrInvalidRange},
		{"zero length tail", "bytes=-0", 1000, ErrInvalidRange},
		{"negative start", "bytes=--5", 1000, ErrInvalidRange},
		{"letters", "bytes=ten-20", 1000, ErrInvalidRange},
		{"offset overflows int64", "bytes=99999999999999999999-", 1000, ErrInvalidRange},
		{"bad end", "bytes=0-x", 1000, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseRange(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("ParseRange(%q) = %+v, want nil", tt.header, *got)
			}
		})
	}
}

func TestRange_Headers(t *testing.T) {
	r := Range{Start: 900, End: 999}

	if got := r.ContentLength(); got != 100 {
		t.Errorf("ContentLength() = %d, want 100", got)
	}
	if got := r.ContentRange(1000); got != "bytes 900-999/1000" {
		t.Errorf("ContentRange() = %q", got)
	}

	single := Range{Start: 0, End: 0}
	if got := single.ContentLength(); got != 1 {
		t.Errorf("single byte ContentLength() = %d, want 1", got)
	}
}
