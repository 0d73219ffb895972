// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Window maps an activity label to its probability for one sub-window.
type Window map[string]float64

// PredictionSet maps a sub-window id to its label probabilities.
type PredictionSet map[string]Window

// Remote model backends.
const (
	ModelCNN  = "CNN"
	ModelHGBC = "HGBC"
)

// ValidModel reports whether id names a known remote model.
func ValidModel(id string) bool {
	return id == ModelCNN || id == ModelHGBC
}

// ContentType of the request body.
const ContentType = "application/octet-stream"

var (
	// ErrClassify matches every transport, server or decoding failure.
	ErrClassify = errors.New("classification failed")
	// ErrEmptyPredictionSet means the service answered with no sub-windows.
	ErrEmptyPredictionSet = errors.New("empty prediction set")
	// ErrUnknownModel is returned before any request is made.
	ErrUnknownModel = errors.New("unknown model")
)

// Error describes a failed classification request.
type Error struct {
	RequestID  string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("classify %s: status %d: %v", e.RequestID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("classify %s: %v", e.RequestID, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrClassify, e.Err} }

// Client submits compressed windows to the remote classification service.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a client posting to endpoint/<model>. A zero timeout
// leaves the request bounded only by the caller's context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP uses a caller-provided http.Client.
func NewClientWithHTTP(endpoint string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/"), http: hc}
}

// maxResponseBytes bounds the decoded prediction body.
const maxResponseBytes = 4 << 20

// Classify posts payload to the model and decodes the per-sub-window predictions.
// There is no retry: a failure simply means no activity for this cycle.
func (c *Client) Classify(ctx context.Context, payload []byte, modelID string) (PredictionSet, error) {
	if !ValidModel(modelID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	reqID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+modelID, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{RequestID: reqID, Err: err}
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			RequestID:  reqID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server error: %s", strings.TrimSpace(string(msg))),
		}
	}

	var preds PredictionSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&preds); err != nil {
		return nil, &Error{RequestID: reqID, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode predictions: %w", err)}
	}
	if len(preds) == 0 {
		return nil, ErrEmptyPredictionSet
	}
	return preds, nil
}
