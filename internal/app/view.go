// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/display"
	"github.com/relabs-tech/activity_recognizer/internal/ingest"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
	"github.com/relabs-tech/activity_recognizer/internal/pipeline"
	"github.com/relabs-tech/activity_recognizer/internal/timeline"
)

// StatusView is served on /api/status and embedded in UI updates.
type StatusView struct {
	Recording      ingest.Status    `json:"recording"`
	LastCycle      *pipeline.Result `json:"last_cycle,omitempty"`
	Buffered       map[string]int   `json:"buffered"`
	Dropped        uint64           `json:"dropped"`
	TimelineLength int              `json:"timeline_length"`
	Model          string           `json:"model"`
	WindowSeconds  float64          `json:"window_seconds"`
}

// TimelineView is served on /api/timeline.
type TimelineView struct {
	Raw    []timeline.Activity `json:"raw"`
	Merged []timeline.Activity `json:"merged"`
}

// UIUpdate is pushed to websocket clients.
type UIUpdate struct {
	Type   string                    `json:"type"` // "refresh" or "cycle"
	Status StatusView                `json:"status"`
	Latest map[string]motion.Reading `json:"latest"`
	Merged []timeline.Activity       `json:"merged"`
	Cycle  *pipeline.Result          `json:"cycle,omitempty"`
}

func (r *Recognizer) status() StatusView {
	st := StatusView{
		Recording:      r.Recorder.Status(),
		Buffered:       make(map[string]int, len(motion.Sensors)),
		Dropped:        r.Ingestor.Dropped(),
		TimelineLength: r.Timeline.Len(),
		Model:          r.cfg.ClassifierModel,
		WindowSeconds:  r.cfg.WindowSeconds,
	}
	for _, s := range motion.Sensors {
		st.Buffered[s.String()] = r.Ingestor.Buffered(s)
	}
	if last, ok := r.Pipeline.Last(); ok {
		st.LastCycle = &last
	}
	return st
}

func (r *Recognizer) latest() map[string]motion.Reading {
	out := make(map[string]motion.Reading, len(motion.Sensors))
	for s, rd := range r.Ingestor.Latest() {
		out[s.String()] = rd
	}
	return out
}

func (r *Recognizer) timelineView() TimelineView {
	raw := r.Timeline.Snapshot()
	merged := timeline.Merge(raw)
	if merged == nil {
		merged = []timeline.Activity{}
	}
	return TimelineView{Raw: raw, Merged: merged}
}

func (r *Recognizer) update(kind string, cycle *pipeline.Result) UIUpdate {
	return UIUpdate{
		Type:   kind,
		Status: r.status(),
		Latest: r.latest(),
		Merged: r.timelineView().Merged,
		Cycle:  cycle,
	}
}

func (r *Recognizer) card() display.Card {
	st := r.Recorder.Status()
	c := display.Card{Recording: st.Recording, Activities: r.Timeline.Len()}
	if st.Recording {
		c.Since = time.Since(st.Since)
	}
	if last, ok := r.Timeline.Last(); ok {
		c.Label = last.Label
		c.Probability = last.Probabilities[last.Label]
	}
	if acc, ok := r.Ingestor.Latest()[motion.Accelerometer]; ok {
		c.Accel = &acc
	}
	return c
}
