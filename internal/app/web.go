// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/activity_recognizer/internal/display"
	"github.com/relabs-tech/activity_recognizer/internal/encoding"
	"github.com/relabs-tech/activity_recognizer/internal/ingest"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// Handler returns the recognizer's HTTP API.
func (r *Recognizer) Handler() http.Handler {
	router := mux.NewRouter()
	route := func(path string, h http.HandlerFunc, methods ...string) {
		router.Handle(path, r.Metrics.WrapHandler(path, h)).Methods(methods...)
	}

	route("/api/readings/latest", r.handleLatest, http.MethodGet)
	route("/api/timeline", r.handleTimeline, http.MethodGet)
	route("/api/timeline", r.handleTimelineReset, http.MethodDelete)
	route("/api/recording/start", r.handleStart, http.MethodPost)
	route("/api/recording/stop", r.handleStop, http.MethodPost)
	route("/api/status", r.handleStatus, http.MethodGet)
	route("/api/status.png", r.handleStatusPNG, http.MethodGet)
	route("/api/export.csv", r.handleExportCSV, http.MethodGet)
	route("/api/export", r.handleExportSave, http.MethodPost)
	route("/api/cycle", r.handleCycle, http.MethodPost)
	router.HandleFunc("/ws", r.handleWS)
	router.Handle("/metrics", r.Metrics.Handler()).Methods(http.MethodGet)

	// Static files from ./web as the root
	router.PathPrefix("/").Handler(http.FileServer(http.Dir("web")))
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (r *Recognizer) handleLatest(w http.ResponseWriter, req *http.Request) {
	latest := r.latest()
	if len(latest) == 0 {
		writeError(w, http.StatusServiceUnavailable, errors.New("no data yet"))
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (r *Recognizer) handleTimeline(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.timelineView())
}

func (r *Recognizer) handleTimelineReset(w http.ResponseWriter, req *http.Request) {
	r.Timeline.Reset()
	r.Metrics.TimelineReset()
	w.WriteHeader(http.StatusNoContent)
}

func (r *Recognizer) handleStart(w http.ResponseWriter, req *http.Request) {
	// the subscription outlives the request
	err := r.Recorder.Start(r.runContext())
	switch {
	case errors.Is(err, ingest.ErrAlreadyRecording):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, r.Recorder.Status())
	}
}

func (r *Recognizer) handleStop(w http.ResponseWriter, req *http.Request) {
	err := r.Recorder.Stop()
	switch {
	case errors.Is(err, ingest.ErrNotRecording):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, r.Recorder.Status())
	}
}

func (r *Recognizer) handleStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.status())
}

func (r *Recognizer) handleStatusPNG(w http.ResponseWriter, req *http.Request) {
	var buf bytes.Buffer
	if err := display.WritePNG(&buf, display.Render(r.card())); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// handleExportCSV streams the current buffers in the export CSV format.
func (r *Recognizer) handleExportCSV(w http.ResponseWriter, req *http.Request) {
	snap, err := r.Ingestor.Snapshot(req.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	var buf bytes.Buffer
	if err := encoding.WriteCSV(&buf, snap); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName()))
	w.Write(buf.Bytes())
}

// handleExportSave writes the current buffers to EXPORT_DIR.
func (r *Recognizer) handleExportSave(w http.ResponseWriter, req *http.Request) {
	snap, err := r.Ingestor.Snapshot(req.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	path, err := saveExport(r.cfg.ExportDir, snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log.Printf("web: exported %d readings to %s", snap.Len(), path)
	writeJSON(w, http.StatusCreated, map[string]any{"path": path, "readings": snap.Len()})
}

// handleCycle runs a classification cycle immediately.
func (r *Recognizer) handleCycle(w http.ResponseWriter, req *http.Request) {
	if !r.Pipeline.Trigger(r.runContext()) {
		writeError(w, http.StatusConflict, errors.New("a cycle is already running"))
		return
	}
	last, _ := r.Pipeline.Last()
	writeJSON(w, http.StatusOK, last)
}

func (r *Recognizer) handleWS(w http.ResponseWriter, req *http.Request) {
	r.hub.serve(w, req, r.update("refresh", nil))
}

func exportName() string {
	return "activity-" + uuid.NewString() + ".csv"
}

func saveExport(dir string, snap motion.SensorWindow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	path := filepath.Join(dir, exportName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	if err := encoding.WriteCSV(f, snap); err != nil {
		f.Close()
		return "", fmt.Errorf("export write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export close: %w", err)
	}
	return path, nil
}
