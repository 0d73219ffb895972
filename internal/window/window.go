// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package window

import (
	"errors"
	"math"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// Margin widens the trailing slice to absorb sampling jitter and cadence drift.
const Margin = 1.2

// ErrInsufficientData means the accelerometer does not yet cover the window.
// The caller skips the cycle.
var ErrInsufficientData = errors.New("insufficient data for window")

// Extract slices snap to the trailing windowSeconds (plus Margin) before now
// and checks that the accelerometer stream spans at least windowSeconds.
func Extract(snap motion.SensorWindow, now int64, windowSeconds float64) (motion.SensorWindow, error) {
	from := now - int64(math.Round(windowSeconds*Margin*1e9))

	var w motion.SensorWindow
	for _, s := range motion.Sensors {
		w.SetStream(s, after(snap.Stream(s), from))
	}

	if len(w.Accelerometer) == 0 {
		return motion.SensorWindow{}, ErrInsufficientData
	}
	lo, hi := w.Accelerometer[0].Timestamp, w.Accelerometer[0].Timestamp
	for _, r := range w.Accelerometer[1:] {
		if r.Timestamp < lo {
			lo = r.Timestamp
		}
		if r.Timestamp > hi {
			hi = r.Timestamp
		}
	}
	if float64(hi-lo)/1e9 < windowSeconds {
		return motion.SensorWindow{}, ErrInsufficientData
	}
	return w, nil
}

func after(readings []motion.Reading, from int64) []motion.Reading {
	var out []motion.Reading
	for _, r := range readings {
		if r.Timestamp > from {
			out = append(out, r)
		}
	}
	return out
}
