// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package encoding

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// Compress gzips b.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}

// Encode renders w as CSV rows and compresses them into the classifier payload.
func Encode(w motion.SensorWindow) ([]byte, error) {
	return Compress([]byte(ToRows(w)))
}

// Decode is the inverse of Encode.
func Decode(payload []byte) (motion.SensorWindow, error) {
	raw, err := Decompress(payload)
	if err != nil {
		return motion.SensorWindow{}, err
	}
	return ParseRows(bytes.NewReader(raw))
}
