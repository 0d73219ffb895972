// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline runs the periodic classification cycle:
// snapshot -> window -> encode -> classify -> aggregate -> timeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/aggregate"
	"github.com/relabs-tech/activity_recognizer/internal/classifier"
	"github.com/relabs-tech/activity_recognizer/internal/encoding"
	"github.com/relabs-tech/activity_recognizer/internal/metrics"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
	"github.com/relabs-tech/activity_recognizer/internal/timeline"
	"github.com/relabs-tech/activity_recognizer/internal/window"
)

// Outcome is how a cycle ended. Only OutcomeClassified adds to the timeline.
type Outcome int

const (
	OutcomeClassified Outcome = iota
	OutcomeInsufficientData
	OutcomeEncodeFailed
	OutcomeClassifyFailed
	OutcomeEmptyPredictions
	OutcomeSnapshotFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClassified:
		return "classified"
	case OutcomeInsufficientData:
		return "insufficient_data"
	case OutcomeEncodeFailed:
		return "encode_failed"
	case OutcomeClassifyFailed:
		return "classify_failed"
	case OutcomeEmptyPredictions:
		return "empty_predictions"
	case OutcomeSnapshotFailed:
		return "snapshot_failed"
	}
	return "unknown"
}

// MarshalText lets outcomes appear by name in JSON.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	for c := OutcomeClassified; c <= OutcomeSnapshotFailed; c++ {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Buffers is the part of the ingestor the cycle needs.
type Buffers interface {
	SnapshotAndTrim(ctx context.Context, now int64, retentionSeconds float64) (motion.SensorWindow, error)
}

// Classifier sends one encoded window to the remote model.
type Classifier interface {
	Classify(ctx context.Context, payload []byte, modelID string) (classifier.PredictionSet, error)
}

// Result describes one finished cycle.
type Result struct {
	Outcome  Outcome            `json:"outcome"`
	At       time.Time          `json:"at"`
	Duration time.Duration      `json:"duration_ns"`
	Readings int                `json:"readings"`
	Activity *timeline.Activity `json:"activity,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Listener is told about every finished cycle, from the cycle goroutine.
type Listener func(Result)

// Options configures a Pipeline.
type Options struct {
	WindowSeconds    float64
	RetentionSeconds float64
	Interval         time.Duration
	Model            string
}

// Pipeline owns the consumer side of the recognizer.
type Pipeline struct {
	opts       Options
	buffers    Buffers
	classifier Classifier
	timeline   *timeline.Timeline
	metrics    *metrics.Metrics

	// Recording gates Run; nil means always.
	Recording func() bool

	mu        sync.Mutex
	listeners []Listener
	last      *Result
	busy      bool
}

// New wires a pipeline. m may be nil.
func New(opts Options, buffers Buffers, cl Classifier, tl *timeline.Timeline, m *metrics.Metrics) *Pipeline {
	return &Pipeline{opts: opts, buffers: buffers, classifier: cl, timeline: tl, metrics: m}
}

// Subscribe adds a listener for cycle results.
func (p *Pipeline) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Last returns the most recent cycle result.
func (p *Pipeline) Last() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// Timeline returns the timeline the pipeline appends to.
func (p *Pipeline) Timeline() *timeline.Timeline { return p.timeline }

// RunCycle performs one classification cycle at now. Every failure is local
// to the cycle: the error is returned and reported, and nothing is appended.
func (p *Pipeline) RunCycle(ctx context.Context, now time.Time) (Outcome, error) {
	start := time.Now()
	res, err := p.cycle(ctx, now)
	res.At = now
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
	}

	p.metrics.Cycle(res.Outcome.String())
	p.mu.Lock()
	p.last = &res
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(res)
	}
	return res.Outcome, err
}

func (p *Pipeline) cycle(ctx context.Context, now time.Time) (Result, error) {
	nowNs := now.UnixNano()

	snap, err := p.buffers.SnapshotAndTrim(ctx, nowNs, p.opts.RetentionSeconds)
	if err != nil {
		return Result{Outcome: OutcomeSnapshotFailed}, fmt.Errorf("snapshot: %w", err)
	}

	w, err := window.Extract(snap, nowNs, p.opts.WindowSeconds)
	if err != nil {
		return Result{Outcome: OutcomeInsufficientData, Readings: snap.Len()}, err
	}

	payload, err := encoding.Encode(w)
	if err != nil {
		return Result{Outcome: OutcomeEncodeFailed, Readings: w.Len()}, fmt.Errorf("encode: %w", err)
	}

	reqStart := time.Now()
	preds, err := p.classifier.Classify(ctx, payload, p.opts.Model)
	p.metrics.ClassifyRequest(time.Since(reqStart))
	if err != nil {
		if errors.Is(err, classifier.ErrEmptyPredictionSet) {
			return Result{Outcome: OutcomeEmptyPredictions, Readings: w.Len()}, err
		}
		return Result{Outcome: OutcomeClassifyFailed, Readings: w.Len()}, err
	}

	agg, err := aggregate.Aggregate(preds)
	if err != nil {
		return Result{Outcome: OutcomeEmptyPredictions, Readings: w.Len()}, err
	}

	startNs := nowNs - int64(p.opts.WindowSeconds*1e9)
	act := p.timeline.Append(agg.Label, startNs, nowNs, agg.MeanProbability)
	p.metrics.Activity(act.Label, p.timeline.Len())
	return Result{Outcome: OutcomeClassified, Readings: w.Len(), Activity: &act}, nil
}

// Run fires RunCycle every Interval while recording, until ctx is cancelled.
// Cycles run on this goroutine, so one never overlaps the next; ticks that
// arrive during a slow cycle are dropped by the ticker.
func (p *Pipeline) Run(ctx context.Context) {
	interval := p.opts.Interval
	if interval <= 0 {
		interval = 20 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("pipeline: classifying every %s (window %.1fs, model %s)", interval, p.opts.WindowSeconds, p.opts.Model)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if p.Recording != nil && !p.Recording() {
				continue
			}
			p.tick(ctx, t)
		}
	}
}

// tick runs one cycle unless another is still in flight.
func (p *Pipeline) tick(ctx context.Context, t time.Time) bool {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return false
	}
	p.busy = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	outcome, err := p.RunCycle(ctx, t)
	switch outcome {
	case OutcomeClassified:
		if last, ok := p.Last(); ok && last.Activity != nil {
			log.Printf("pipeline: %s (id %d)", last.Activity.Label, last.Activity.ID)
		}
	case OutcomeInsufficientData:
		log.Printf("pipeline: skipping cycle: %v", err)
	default:
		log.Printf("pipeline: cycle %s: %v", outcome, err)
	}
	return true
}

// Trigger runs a cycle now, outside the ticker, unless one is in flight.
// It reports whether a cycle ran.
func (p *Pipeline) Trigger(ctx context.Context) bool {
	return p.tick(ctx, time.Now())
}
