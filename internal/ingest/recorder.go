// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

var (
	ErrAlreadyRecording = errors.New("ingest: already recording")
	ErrNotRecording     = errors.New("ingest: not recording")
)

// Source produces raw sensor events until ctx is cancelled.
// emit may be called from any goroutine.
type Source interface {
	Run(ctx context.Context, emit func(motion.Event)) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, emit func(motion.Event)) error

func (f SourceFunc) Run(ctx context.Context, emit func(motion.Event)) error { return f(ctx, emit) }

// Status describes the recorder state.
type Status struct {
	Recording bool      `json:"recording"`
	Since     time.Time `json:"since,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Recorder is the Idle <-> Recording state machine. The source subscription
// exists only while recording.
type Recorder struct {
	ing    *Ingestor
	source Source

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	since   time.Time
	lastErr error
}

// NewRecorder binds a source to an ingestor.
func NewRecorder(ing *Ingestor, source Source) *Recorder {
	return &Recorder{ing: ing, source: source}
}

// Start subscribes to the source. The subscription lives until Stop, until
// ctx is cancelled, or until the source returns on its own.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrAlreadyRecording
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.since = time.Now()
	r.lastErr = nil
	r.ing.SetRecording(true)
	log.Printf("ingest: recording started")

	go func() {
		defer close(done)
		err := r.source.Run(runCtx, func(e motion.Event) { r.ing.Submit(e) })
		if runCtx.Err() != nil {
			return
		}
		// source ended by itself
		if err != nil {
			log.Printf("ingest: sensor source stopped: %v", err)
		} else {
			log.Printf("ingest: sensor source finished")
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.done == done {
			r.ing.SetRecording(false)
			r.cancel()
			r.cancel = nil
			r.done = nil
			r.lastErr = err
		}
	}()
	return nil
}

// Stop releases the source subscription and waits for it to return.
// The timeline and any in-flight classification are left alone.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrNotRecording
	}
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.ing.SetRecording(false)
	r.mu.Unlock()

	cancel()
	<-done
	log.Printf("ingest: recording stopped")
	return nil
}

// Recording reports whether the recorder is in the Recording state.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Status returns a copy of the current state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Recording: r.cancel != nil}
	if st.Recording {
		st.Since = r.since
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	return st
}
