// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package aggregate reduces per-sub-window predictions to one activity label.
//
// Every sub-window votes for its most probable label. The overall winner is
// the label that won the most sub-windows; ties go to the higher mean winning
// probability, then to the lexicographically smallest label. A label tied for
// the maximum inside one sub-window is resolved the same way (smallest label),
// so the result never depends on map iteration order.
package aggregate

import (
	"github.com/relabs-tech/activity_recognizer/internal/classifier"
)

// ErrEmptyPredictionSet is returned when there is nothing to aggregate.
var ErrEmptyPredictionSet = classifier.ErrEmptyPredictionSet

// Result is the outcome of one aggregation.
type Result struct {
	Label           string             `json:"label"`
	Frequency       map[string]int     `json:"frequency"`
	MeanProbability map[string]float64 `json:"mean_probability"`
}

// Aggregate picks the dominant activity across all sub-windows.
func Aggregate(preds classifier.PredictionSet) (Result, error) {
	frequency := make(map[string]int)
	sum := make(map[string]float64)

	for _, w := range preds {
		label, p, ok := argmax(w)
		if !ok {
			continue
		}
		frequency[label]++
		sum[label] += p
	}
	if len(frequency) == 0 {
		return Result{}, ErrEmptyPredictionSet
	}

	mean := make(map[string]float64, len(frequency))
	for label, n := range frequency {
		mean[label] = sum[label] / float64(n)
	}

	var winner string
	found := false
	for label := range frequency {
		if !found || better(label, winner, frequency, mean) {
			winner, found = label, true
		}
	}
	return Result{Label: winner, Frequency: frequency, MeanProbability: mean}, nil
}

func better(a, b string, frequency map[string]int, mean map[string]float64) bool {
	if frequency[a] != frequency[b] {
		return frequency[a] > frequency[b]
	}
	if mean[a] != mean[b] {
		return mean[a] > mean[b]
	}
	return a < b
}

// argmax returns the most probable label of one sub-window.
func argmax(w classifier.Window) (string, float64, bool) {
	var (
		best  string
		bestP float64
		found bool
	)
	for label, p := range w {
		if !found || p > bestP || (p == bestP && label < best) {
			best, bestP, found = label, p, true
		}
	}
	return best, bestP, found
}
