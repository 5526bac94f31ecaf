package editor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// Reduce applies ev to s. On error s is returned unchanged with no effects.
func Reduce(s State, ev Event) (State, []Effect, error) {
	switch e := ev.(type) {
	case Load:
		return reduceLoad(s, e)
	case Ready:
		if s.Phase != PhaseLoading {
			return s, nil, ErrNotLoading
		}
		s.Phase = PhaseReady
		return s, []Effect{NotifyReady{}}, nil
	case SetDimensions:
		return reduceSetDimensions(s, e)
	case ChangeDimension:
		return reduceChangeDimension(s, e)
	case SetExportOptions:
		return reduceSetExportOptions(s, e)
	case SelectFormat:
		return reduceSelectFormat(s, e)
	case SelectPlugin:
		return reduceSelectPlugin(s, e)
	case ChangeFPS:
		return reduceChangeFPS(s, e)
	default:
		return s, nil, fmt.Errorf("unsupported event %T", ev)
	}
}

func reduceLoad(s State, e Load) (State, []Effect, error) {
	fps := e.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	s.Phase = PhaseLoading
	s.SourcePath = e.SourcePath
	s.SourceURI = "file://" + e.SourcePath
	s.FPS = fps
	s.OriginalFPS = fps
	return s, []Effect{SetSource{URI: s.SourceURI}}, nil
}

func reduceSetDimensions(s State, e SetDimensions) (State, []Effect, error) {
	if s.Phase == PhaseEmpty {
		return s, nil, ErrNotReady
	}
	if e.Width <= 0 || e.Height <= 0 {
		return s, nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, e.Width, e.Height)
	}
	d := Dimensions{Width: e.Width, Height: e.Height}
	s.Original = d
	s.Dimensions = d
	s.Ratio = float64(e.Width) / float64(e.Height)
	return s, nil, nil
}

func reduceChangeDimension(s State, e ChangeDimension) (State, []Effect, error) {
	if s.Phase != PhaseReady {
		return s, nil, ErrNotReady
	}
	if !s.HasDimensions() {
		return s, nil, ErrNoDimensions
	}

	var min, max int
	switch e.Axis {
	case FieldWidth:
		min, max = s.MinWidth(), s.Original.Width
	case FieldHeight:
		min, max = s.MinHeight(), s.Original.Height
	default:
		return s, nil, fmt.Errorf("unknown axis %q", e.Axis)
	}

	val, ok := clampInput(e.Raw, min, max)
	if !ok {
		return s, []Effect{Reject{Field: e.Axis}}, nil
	}

	var effects []Effect
	if val.clamped {
		effects = append(effects, Reject{Field: e.Axis})
	}

	if e.Axis == FieldWidth {
		s.Dimensions = Dimensions{Width: val.n, Height: roundHalfUp(float64(val.n) / s.Ratio)}
	} else {
		s.Dimensions = Dimensions{Width: roundHalfUp(float64(val.n) * s.Ratio), Height: val.n}
	}
	return s, effects, nil
}

func reduceSetExportOptions(s State, e SetExportOptions) (State, []Effect, error) {
	if err := e.Catalog.Validate(); err != nil {
		return s, nil, err
	}
	c := e.Catalog.Clone()
	s.Catalog = c
	s.Format = c[0].Name
	s.Plugin = c[0].Plugins[0].Title
	s.WasMutedBeforeAutoMute = false
	return s, nil, nil
}

func reduceSelectFormat(s State, e SelectFormat) (State, []Effect, error) {
	if s.Phase != PhaseReady {
		return s, nil, ErrNotReady
	}
	if len(s.Catalog) == 0 {
		return s, nil, ErrNoCatalog
	}
	next, ok := s.Catalog.Lookup(e.Format)
	if !ok {
		return s, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, e.Format)
	}

	plugin := next.Plugins[0].Title
	if _, ok := next.FindPlugin(s.Plugin); ok {
		plugin = s.Plugin
	}

	var effects []Effect
	wasSilent, nowSilent := IsSilentFormat(s.Format), IsSilentFormat(e.Format)
	switch {
	case nowSilent && !wasSilent:
		s.WasMutedBeforeAutoMute = e.MediaMuted
		effects = append(effects, Mute{})
	case !nowSilent && wasSilent && !s.WasMutedBeforeAutoMute:
		effects = append(effects, Unmute{})
	}

	s.Format = e.Format
	s.Plugin = plugin
	return s, effects, nil
}

func reduceSelectPlugin(s State, e SelectPlugin) (State, []Effect, error) {
	if s.Phase != PhaseReady {
		return s, nil, ErrNotReady
	}
	format, ok := s.Catalog.Lookup(s.Format)
	if !ok {
		return s, nil, ErrNoCatalog
	}
	if _, ok := format.FindPlugin(e.Title); !ok {
		return s, nil, fmt.Errorf("%w: %q not offered for %s", ErrUnknownPlugin, e.Title, s.Format)
	}
	s.Plugin = e.Title
	return s, nil, nil
}

func reduceChangeFPS(s State, e ChangeFPS) (State, []Effect, error) {
	if s.Phase != PhaseReady {
		return s, nil, ErrNotReady
	}

	val, ok := clampInput(e.Raw, 1, s.OriginalFPS)
	if !ok {
		return s, []Effect{Reject{Field: FieldFPS}}, nil
	}
	s.FPS = val.n
	if val.clamped {
		return s, []Effect{Reject{Field: FieldFPS}}, nil
	}
	return s, nil, nil
}

type clampedInt struct {
	n       int
	clamped bool
}

// clampInput parses a digits-only string and clamps it to [min, max]. ok is
// false for anything that is not a plain run of decimal digits.
func clampInput(raw string, min, max int) (clampedInt, bool) {
	if !digitsRe.MatchString(raw) {
		return clampedInt{}, false
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		// Only out-of-range digit strings get here.
		return clampedInt{n: max, clamped: true}, true
	}

	switch {
	case n < min:
		return clampedInt{n: min, clamped: true}, true
	case n > max:
		return clampedInt{n: max, clamped: true}, true
	default:
		return clampedInt{n: n}, true
	}
}

// roundHalfUp rounds to the nearest integer with ties away from zero; all
// derived sizes are positive so this is the same as rounding half up.
func roundHalfUp(v float64) int {
	return int(math.Round(v))
}
