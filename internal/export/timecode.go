package export

import (
	"fmt"
	"math"
)

// Timecode formats seconds as HH:MM:SS.mmm, the seek syntax ffmpeg accepts.
func Timecode(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))
	ms := totalMs % 1000
	totalSeconds := totalMs / 1000
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, ms)
}
