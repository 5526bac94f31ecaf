// Package editor holds the export dialog session: the requested output
// size, frame rate and format/plugin selection, and the rules that keep them
// consistent while the user edits them.
package editor

import "math"

// DefaultFPS is used when a source is loaded without a frame rate.
const DefaultFPS = 15

type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "empty"
	}
}

// Field names an editable input, used when an edit is rejected or clamped.
type Field string

const (
	FieldWidth  Field = "width"
	FieldHeight Field = "height"
	FieldFPS    Field = "fps"
)

// Axis is the dimension being edited.
type Axis = Field

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State is the whole session. It is a value: transitions return a new State
// and never modify the one they were given.
type State struct {
	// Version counts the transitions a Session has applied. Reduce leaves it
	// alone; it orders states observed outside the session lock.
	Version uint64

	Phase      Phase
	SourcePath string
	SourceURI  string

	Original   Dimensions
	Dimensions Dimensions
	Ratio      float64

	OriginalFPS int
	FPS         int

	Catalog Catalog
	Format  string
	Plugin  string

	WasMutedBeforeAutoMute bool
}

// SilentFormats produce files without an audio track.
var SilentFormats = map[string]bool{
	"gif":  true,
	"apng": true,
}

func IsSilentFormat(format string) bool {
	return SilentFormats[format]
}

// MutedByFormat reports whether the selected format forces silence.
func (s State) MutedByFormat() bool {
	return IsSilentFormat(s.Format)
}

func (s State) HasDimensions() bool {
	return s.Original.Width > 0 && s.Original.Height > 0
}

// MinWidth is the smallest width whose derived height is still at least 1.
func (s State) MinWidth() int {
	return maxInt(1, int(math.Ceil(s.Ratio)))
}

// MinHeight is the smallest height whose derived width is still at least 1.
func (s State) MinHeight() int {
	return maxInt(1, int(math.Ceil(1/s.Ratio)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
