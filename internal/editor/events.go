package editor

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

type Load struct {
	SourcePath string
	FPS        int
}

type Ready struct{}

type SetDimensions struct {
	Width  int
	Height int
}

type ChangeDimension struct {
	Axis Axis
	Raw  string
}

type SetExportOptions struct {
	Catalog Catalog
}

// SelectFormat carries the media's mute flag at the time of the selection so
// the transition stays a pure function of its inputs.
type SelectFormat struct {
	Format     string
	MediaMuted bool
}

type SelectPlugin struct {
	Title string
}

type ChangeFPS struct {
	Raw string
}

func (Load) isEvent()             {}
func (Ready) isEvent()            {}
func (SetDimensions) isEvent()    {}
func (ChangeDimension) isEvent()  {}
func (SetExportOptions) isEvent() {}
func (SelectFormat) isEvent()     {}
func (SelectPlugin) isEvent()     {}
func (ChangeFPS) isEvent()        {}

// Effect is a side effect requested by a transition. Session applies them to
// the collaborators after the new state is in place.
type Effect interface {
	isEffect()
}

type SetSource struct {
	URI string
}

type Mute struct{}

type Unmute struct{}

// Reject tells the UI an input was refused or clamped.
type Reject struct {
	Field Field
}

// NotifyReady runs the continuation stored by Load.
type NotifyReady struct{}

func (SetSource) isEffect()   {}
func (Mute) isEffect()        {}
func (Unmute) isEffect()      {}
func (Reject) isEffect()      {}
func (NotifyReady) isEffect() {}

// Rejected lists the fields named by Reject effects, in order, without
// duplicates.
func Rejected(effects []Effect) []Field {
	var fields []Field
	seen := map[Field]bool{}
	for _, e := range effects {
		if r, ok := e.(Reject); ok && !seen[r.Field] {
			seen[r.Field] = true
			fields = append(fields, r.Field)
		}
	}
	return fields
}
