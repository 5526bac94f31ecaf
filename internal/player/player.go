// Package player mirrors the state of the dialog's video element. The front
// end reports playback position and trim range; the editor session drives
// the source and mute flag, which the front end reads back.
package player

import (
	"log/slog"
	"sync"
)

// State is the wire form exchanged with the front end.
type State struct {
	Source      string  `json:"source"`
	CurrentTime float64 `json:"currentTime"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
	Muted       bool    `json:"muted"`
}

// Update is a partial report from the front end. Nil fields are left alone.
type Update struct {
	CurrentTime *float64 `json:"currentTime,omitempty"`
	StartTime   *float64 `json:"startTime,omitempty"`
	EndTime     *float64 `json:"endTime,omitempty"`
	Muted       *bool    `json:"muted,omitempty"`
}

type Player struct {
	mu     sync.RWMutex
	state  State
	logger *slog.Logger
}

func New(logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

// SetSource switches to a new source and resets position and trim range.
func (p *Player) SetSource(uri string) {
	p.mu.Lock()
	p.state = State{Source: uri, Muted: p.state.Muted}
	p.mu.Unlock()
	if p.logger != nil {
		p.logger.Debug("player source set", "uri", uri)
	}
}

func (p *Player) CurrentTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.CurrentTime
}

func (p *Player) StartTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.StartTime
}

func (p *Player) EndTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.EndTime
}

func (p *Player) Muted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Muted
}

func (p *Player) Mute() {
	p.mu.Lock()
	p.state.Muted = true
	p.mu.Unlock()
}

func (p *Player) Unmute() {
	p.mu.Lock()
	p.state.Muted = false
	p.mu.Unlock()
}

func (p *Player) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Apply merges a report from the front end. Times are clamped to be
// non-negative and the end of the trim range never precedes its start.
func (p *Player) Apply(u Update) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.CurrentTime != nil {
		p.state.CurrentTime = nonNegative(*u.CurrentTime)
	}
	if u.StartTime != nil {
		p.state.StartTime = nonNegative(*u.StartTime)
	}
	if u.EndTime != nil {
		p.state.EndTime = nonNegative(*u.EndTime)
	}
	if p.state.EndTime < p.state.StartTime {
		p.state.EndTime = p.state.StartTime
	}
	if u.Muted != nil {
		p.state.Muted = *u.Muted
	}
	return p.state
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
