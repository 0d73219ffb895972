// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ingest owns the sensor buffers. Sources push events into the
// Ingestor, the classification cycle pulls snapshots out of it, and a single
// goroutine serializes both so a snapshot never sees half an append.
package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/relabs-tech/activity_recognizer/internal/buffer"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// DefaultQueueSize is the number of pending events Submit accepts before dropping.
const DefaultQueueSize = 1024

type entry struct {
	sensor  motion.Sensor
	reading motion.Reading
}

type requestKind int

const (
	reqSnapshot requestKind = iota
	reqSnapshotAndTrim
	reqClear
)

type request struct {
	kind      requestKind
	now       int64
	retention float64
	reply     chan motion.SensorWindow
}

// Ingestor appends normalized readings to a buffer.Set owned by Run.
type Ingestor struct {
	norm     motion.Normalizer
	events   chan entry
	requests chan request

	recording atomic.Bool
	dropped   atomic.Uint64
	accepted  atomic.Uint64

	mu     sync.RWMutex
	latest [3]*motion.Reading
	counts [3]int
}

// New returns an Ingestor with the given unit normalizer and queue size.
// queueSize <= 0 selects DefaultQueueSize.
func New(norm motion.Normalizer, queueSize int) *Ingestor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Ingestor{
		norm:     norm,
		events:   make(chan entry, queueSize),
		requests: make(chan request),
	}
}

// Run is the owner loop. It returns when ctx is cancelled.
func (in *Ingestor) Run(ctx context.Context) {
	buf := buffer.New()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-in.events:
			in.apply(buf, e)
		case req := <-in.requests:
			// everything queued before the request belongs in the snapshot
			in.drain(buf)
			switch req.kind {
			case reqSnapshotAndTrim:
				buf.TrimOlderThan(req.now, req.retention)
				in.recount(buf)
			case reqClear:
				buf.Clear()
				in.recount(buf)
			}
			req.reply <- buf.Snapshot()
		}
	}
}

func (in *Ingestor) apply(buf *buffer.Set, e entry) {
	buf.Append(e.sensor, e.reading)
	r := e.reading
	in.mu.Lock()
	in.latest[e.sensor] = &r
	in.counts[e.sensor] = buf.Len(e.sensor)
	in.mu.Unlock()
}

func (in *Ingestor) drain(buf *buffer.Set) {
	for {
		select {
		case e := <-in.events:
			in.apply(buf, e)
		default:
			return
		}
	}
}

func (in *Ingestor) recount(buf *buffer.Set) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, s := range motion.Sensors {
		in.counts[s] = buf.Len(s)
		if in.counts[s] == 0 {
			in.latest[s] = nil
		}
	}
}

// Submit normalizes e and queues it for the owner loop. It never blocks:
// events are ignored while not recording and dropped when the queue is full.
// It reports whether the event was queued.
func (in *Ingestor) Submit(e motion.Event) bool {
	if !in.recording.Load() {
		return false
	}
	if e.Sensor < motion.Accelerometer || e.Sensor > motion.Magnetometer {
		return false
	}
	select {
	case in.events <- entry{sensor: e.Sensor, reading: in.norm.Normalize(e)}:
		in.accepted.Add(1)
		return true
	default:
		in.dropped.Add(1)
		return false
	}
}

// SetRecording gates Submit.
func (in *Ingestor) SetRecording(on bool) { in.recording.Store(on) }

// Recording reports whether Submit currently accepts events.
func (in *Ingestor) Recording() bool { return in.recording.Load() }

// Snapshot returns a deep copy of all three buffers.
func (in *Ingestor) Snapshot(ctx context.Context) (motion.SensorWindow, error) {
	return in.do(ctx, request{kind: reqSnapshot})
}

// SnapshotAndTrim drops readings older than now - retentionSeconds and
// returns a copy of what remains, in one step.
func (in *Ingestor) SnapshotAndTrim(ctx context.Context, now int64, retentionSeconds float64) (motion.SensorWindow, error) {
	return in.do(ctx, request{kind: reqSnapshotAndTrim, now: now, retention: retentionSeconds})
}

// Clear empties the buffers.
func (in *Ingestor) Clear(ctx context.Context) error {
	_, err := in.do(ctx, request{kind: reqClear})
	return err
}

func (in *Ingestor) do(ctx context.Context, req request) (motion.SensorWindow, error) {
	req.reply = make(chan motion.SensorWindow, 1)
	select {
	case in.requests <- req:
	case <-ctx.Done():
		return motion.SensorWindow{}, ctx.Err()
	}
	select {
	case w := <-req.reply:
		return w, nil
	case <-ctx.Done():
		return motion.SensorWindow{}, ctx.Err()
	}
}

// Latest returns the most recent reading of every stream, if any.
func (in *Ingestor) Latest() map[motion.Sensor]motion.Reading {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make(map[motion.Sensor]motion.Reading, 3)
	for _, s := range motion.Sensors {
		if r := in.latest[s]; r != nil {
			out[s] = *r
		}
	}
	return out
}

// Buffered returns the number of buffered readings per stream.
func (in *Ingestor) Buffered(s motion.Sensor) int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if s < motion.Accelerometer || s > motion.Magnetometer {
		return 0
	}
	return in.counts[s]
}

// Dropped is the number of events lost to a full queue.
func (in *Ingestor) Dropped() uint64 { return in.dropped.Load() }

// Accepted is the number of events queued since start.
func (in *Ingestor) Accepted() uint64 { return in.accepted.Load() }
