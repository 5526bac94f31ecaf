package export

// Options is the rendering part of a Job. Field names follow the wire
// contract the renderer consumes.
type Options struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FPS       int     `json:"fps"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Muted     bool    `json:"muted"`
}

// Job is a finished export description handed to the rendering process.
type Job struct {
	ExportOptions Options `json:"exportOptions"`
	InputPath     string  `json:"inputPath"`
	PluginName    string  `json:"pluginName"`
	IsDefault     bool    `json:"isDefault"`
	ServiceTitle  string  `json:"serviceTitle"`
	Format        string  `json:"format"`
	OriginalFPS   int     `json:"originalFps"`
}

// Duration returns the length of the trimmed range in seconds.
func (j Job) Duration() float64 {
	d := j.ExportOptions.EndTime - j.ExportOptions.StartTime
	if d < 0 {
		return 0
	}
	return d
}

// Snapshot asks the renderer for a single still frame.
type Snapshot struct {
	InputPath  string  `json:"inputPath"`
	OutputPath string  `json:"outputPath"`
	Time       float64 `json:"time"`
}
