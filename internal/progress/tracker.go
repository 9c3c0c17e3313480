// Package progress holds the process-wide download progress gauge and the
// loop that reports it to streaming clients.
package progress

import (
	"math"

	"go.uber.org/atomic"
)

// Phase identifies the sub-stage reported by the extractor.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseMerging     Phase = "merging"
)

// Stage is the label derived from the overall progress value.
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageProcessing  Stage = "processing"
)

const (
	// downloadShare is the upper bound of the downloading phase on the 0-100 scale;
	// merging fills the rest.
	downloadShare = 40.0
	maxProgress   = 100.0

	// StageThreshold separates "downloading" from "processing".
	StageThreshold = 50.0
)

// Reading is a snapshot of the gauge.
type Reading struct {
	Progress float64 `json:"progress"`
	Stage    Stage   `json:"stage"`
}

// Tracker is a lock-free 0-100 gauge. Within one job the value never
// decreases; Reset starts a new job.
type Tracker struct {
	value *atomic.Float64
}

func NewTracker() *Tracker {
	return &Tracker{value: atomic.NewFloat64(0)}
}

// Reset sets progress back to 0.
func (t *Tracker) Reset() {
	t.value.Store(0)
}

// Update maps a phase fraction in [0,1] onto the overall scale. Values lower
// than the current one are ignored.
func (t *Tracker) Update(phase Phase, fraction float64) {
	next := Scale(phase, fraction)
	for {
		current := t.value.Load()
		if next <= current {
			return
		}
		if t.value.CompareAndSwap(current, next) {
			return
		}
	}
}

// Read returns the current value and its stage label.
func (t *Tracker) Read() Reading {
	v := t.value.Load()
	return Reading{Progress: v, Stage: StageFor(v)}
}

// Scale converts a phase fraction to the overall 0-100 scale.
func Scale(phase Phase, fraction float64) float64 {
	switch {
	case fraction < 0 || math.IsNaN(fraction):
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	if phase == PhaseMerging {
		return downloadShare + fraction*(maxProgress-downloadShare)
	}
	return fraction * downloadShare
}

// StageFor derives the stage label from a progress value.
func StageFor(value float64) Stage {
	if value < StageThreshold {
		return StageDownloading
	}
	return StageProcessing
}
