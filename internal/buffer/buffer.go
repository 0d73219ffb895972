// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package buffer holds the three per-sensor reading sequences.
//
// A Set is not safe for concurrent use. It is owned by a single task
// (see internal/ingest) which serializes appends, trims and snapshots;
// readers only ever receive copies.
package buffer

import (
	"math"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// Set is the ring buffer set: one ordered sequence per sensor.
type Set struct {
	streams [3][]motion.Reading
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// Append adds r to the tail of the sensor's sequence.
func (s *Set) Append(sensor motion.Sensor, r motion.Reading) {
	i := int(sensor)
	if i < 0 || i >= len(s.streams) {
		return
	}
	s.streams[i] = append(s.streams[i], r)
}

// TrimOlderThan drops every reading with timestamp < now - retention.
// now is in nanoseconds, retention in seconds. Remaining readings keep
// their relative order.
func (s *Set) TrimOlderThan(now int64, retentionSeconds float64) {
	cutoff := now - int64(math.Round(retentionSeconds*1e9))
	for i := range s.streams {
		s.streams[i] = trim(s.streams[i], cutoff)
	}
}

func trim(readings []motion.Reading, cutoff int64) []motion.Reading {
	// skip the common case: an ordered stream whose head is already old enough
	head := 0
	for head < len(readings) && readings[head].Timestamp < cutoff {
		head++
	}
	rest := readings[head:]
	kept := rest[:0]
	for _, r := range rest {
		if r.Timestamp >= cutoff {
			kept = append(kept, r)
		}
	}
	if head > len(readings)/2 {
		// release the dropped prefix instead of pinning it in the backing array
		return append([]motion.Reading(nil), kept...)
	}
	return kept
}

// Snapshot returns a deep copy of all three sequences.
func (s *Set) Snapshot() motion.SensorWindow {
	var w motion.SensorWindow
	for _, sensor := range motion.Sensors {
		src := s.streams[sensor]
		if len(src) == 0 {
			continue
		}
		w.SetStream(sensor, append([]motion.Reading(nil), src...))
	}
	return w
}

// Len returns the number of readings buffered for one sensor.
func (s *Set) Len(sensor motion.Sensor) int {
	i := int(sensor)
	if i < 0 || i >= len(s.streams) {
		return 0
	}
	return len(s.streams[i])
}

// Latest returns the most recent reading of a sensor, if any.
func (s *Set) Latest(sensor motion.Sensor) (motion.Reading, bool) {
	i := int(sensor)
	if i < 0 || i >= len(s.streams) || len(s.streams[i]) == 0 {
		return motion.Reading{}, false
	}
	return s.streams[i][len(s.streams[i])-1], true
}

// Clear empties every sequence.
func (s *Set) Clear() {
	for i := range s.streams {
		s.streams[i] = nil
	}
}
