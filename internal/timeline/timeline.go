// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package timeline

import (
	"sync"
)

// Activity is one timeline entry: the dominant action over a classification cycle.
type Activity struct {
	ID            uint64             `json:"id"`
	Label         string             `json:"label"`
	StartTime     int64              `json:"start_time"` // nanoseconds
	EndTime       int64              `json:"end_time"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Timeline is the append-only record of every aggregated cycle.
// The pipeline is its only writer; readers take copies via Snapshot.
type Timeline struct {
	mu         sync.RWMutex
	activities []Activity
	nextID     uint64
}

// New returns an empty timeline whose first activity gets id 1.
func New() *Timeline {
	return &Timeline{nextID: 1}
}

// Append records a new activity and returns it.
func (t *Timeline) Append(label string, start, end int64, probabilities map[string]float64) Activity {
	probs := make(map[string]float64, len(probabilities))
	for k, v := range probabilities {
		probs[k] = v
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	a := Activity{
		ID:            t.nextID,
		Label:         label,
		StartTime:     start,
		EndTime:       end,
		Probabilities: probs,
	}
	t.nextID++
	t.activities = append(t.activities, a)
	return cloneActivity(a)
}

// Snapshot returns a deep copy of the timeline in chronological order.
func (t *Timeline) Snapshot() []Activity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Activity, len(t.activities))
	for i, a := range t.activities {
		out[i] = cloneActivity(a)
	}
	return out
}

// Len returns the number of recorded activities.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.activities)
}

// Last returns the most recent activity.
func (t *Timeline) Last() (Activity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.activities) == 0 {
		return Activity{}, false
	}
	return cloneActivity(t.activities[len(t.activities)-1]), true
}

// Reset discards every activity and restarts ids at 1, like a process restart.
func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activities = nil
	t.nextID = 1
}

func cloneActivity(a Activity) Activity {
	if a.Probabilities != nil {
		probs := make(map[string]float64, len(a.Probabilities))
		for k, v := range a.Probabilities {
			probs[k] = v
		}
		a.Probabilities = probs
	}
	return a
}
