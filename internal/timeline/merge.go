// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package timeline

// Merge collapses runs of consecutive activities with the same label into one
// entry for display. The first entry of a run is kept and its EndTime widened
// to the last entry's EndTime. The input is not modified.
func Merge(activities []Activity) []Activity {
	var out []Activity
	for _, a := range activities {
		if n := len(out); n > 0 && out[n-1].Label == a.Label {
			out[n-1].EndTime = a.EndTime
			continue
		}
		out = append(out, cloneActivity(a))
	}
	return out
}
