// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/activity_recognizer/internal/classifier"
	"github.com/relabs-tech/activity_recognizer/internal/config"
	"github.com/relabs-tech/activity_recognizer/internal/encoding"
)

// MockLabels are the activities the mock classifier picks from.
var MockLabels = []string{"Running", "Walking", "Standing", "Sitting"}

// rowsPerSubWindow is how many CSV rows the mock treats as one sub-window.
const rowsPerSubWindow = 50

const maxPayloadBytes = 16 << 20

// MockClassifier answers classification requests with random predictions
// shaped like the real service's.
type MockClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockClassifier seeds the generator; equal seeds give equal answers.
func NewMockClassifier(seed int64) *MockClassifier {
	return &MockClassifier{rng: rand.New(rand.NewSource(seed))}
}

// Predict returns n sub-windows with normalized random probabilities.
func (m *MockClassifier) Predict(n int) classifier.PredictionSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	preds := make(classifier.PredictionSet, n)
	for i := 0; i < n; i++ {
		w := make(classifier.Window, len(MockLabels))
		var sum float64
		for _, l := range MockLabels {
			v := m.rng.Float64()
			w[l] = v
			sum += v
		}
		for l := range w {
			w[l] /= sum
		}
		preds[strconv.Itoa(i)] = w
	}
	return preds
}

// Handler serves POST /{model}.
func (m *MockClassifier) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/{model}", m.handleClassify).Methods(http.MethodPost)
	return router
}

func (m *MockClassifier) handleClassify(w http.ResponseWriter, r *http.Request) {
	model := mux.Vars(r)["model"]
	if !classifier.ValidModel(model) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", classifier.ErrUnknownModel, model))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	text, err := encoding.Decompress(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	win, err := encoding.ParseRows(bytes.NewReader(text))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// header line excluded
	rows := bytes.Count(text, []byte("\n")) - 1
	n := rows / rowsPerSubWindow
	if n < 1 {
		n = 1
	}
	log.Printf("mock classifier: %s request %s: %d rows (%d readings) -> %d sub-windows",
		model, r.Header.Get("X-Request-ID"), rows, win.Len(), n)
	writeJSON(w, http.StatusOK, m.Predict(n))
}

// RunMockClassifier serves the mock classification service on
// MOCK_CLASSIFIER_PORT.
func RunMockClassifier(seed int64) error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("configuration not initialized")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := NewMockClassifier(seed)

	addr := ":" + strconv.Itoa(cfg.MockClassifierPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(os.Stdout, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("mock classifier listening on %s", addr)
	return srv.ListenAndServe()
}
