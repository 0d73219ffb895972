// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package encoding

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// Null marks a sensor with no reading at a row's timestamp.
const Null = "null"

// Header is the column layout shared by the classifier payload and CSV exports.
var Header = []string{
	"timestamp",
	"Accelerometer_x", "Accelerometer_y", "Accelerometer_z",
	"Gyroscope_x", "Gyroscope_y", "Gyroscope_z",
	"Magnetometer_x", "Magnetometer_y", "Magnetometer_z",
}

// ToRows renders w with one row per distinct timestamp across all sensors.
func ToRows(w motion.SensorWindow) string {
	var buf bytes.Buffer
	// writes to a bytes.Buffer cannot fail
	_ = WriteCSV(&buf, w)
	return buf.String()
}

// WriteCSV streams w to out in the row format described by Header.
func WriteCSV(out io.Writer, w motion.SensorWindow) error {
	byTime := make(map[int64]*[3]*motion.Reading)
	for _, s := range motion.Sensors {
		readings := w.Stream(s)
		for i := range readings {
			ts := readings[i].Timestamp
			row, ok := byTime[ts]
			if !ok {
				row = new([3]*motion.Reading)
				byTime[ts] = row
			}
			// a later reading with the same timestamp replaces the earlier one
			row[s] = &readings[i]
		}
	}

	timestamps := make([]int64, 0, len(byTime))
	for ts := range byTime {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	cw := csv.NewWriter(out)
	if err := cw.Write(Header); err != nil {
		return err
	}
	record := make([]string, len(Header))
	for _, ts := range timestamps {
		row := byTime[ts]
		record[0] = strconv.FormatInt(ts, 10)
		for _, s := range motion.Sensors {
			col := 1 + int(s)*3
			r := row[s]
			if r == nil {
				record[col], record[col+1], record[col+2] = Null, Null, Null
				continue
			}
			record[col] = formatValue(r.X)
			record[col+1] = formatValue(r.Y)
			record[col+2] = formatValue(r.Z)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// ErrBadHeader is returned by ParseRows when the first record is not Header.
var ErrBadHeader = errors.New("unexpected CSV header")

// ParseRows reads text produced by ToRows back into a window.
// Values carry the 3-decimal rounding of the encoding.
func ParseRows(r io.Reader) (motion.SensorWindow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return motion.SensorWindow{}, fmt.Errorf("read header: %w", err)
	}
	for i := range Header {
		if head[i] != Header[i] {
			return motion.SensorWindow{}, fmt.Errorf("%w: column %d is %q", ErrBadHeader, i, head[i])
		}
	}

	var w motion.SensorWindow
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return motion.SensorWindow{}, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return motion.SensorWindow{}, fmt.Errorf("line %d: invalid timestamp %q: %w", line, record[0], err)
		}
		for _, s := range motion.Sensors {
			col := 1 + int(s)*3
			if record[col] == Null {
				continue
			}
			var xyz [3]float64
			for k := 0; k < 3; k++ {
				v, err := strconv.ParseFloat(record[col+k], 64)
				if err != nil {
					return motion.SensorWindow{}, fmt.Errorf("line %d: invalid %s: %w", line, Header[col+k], err)
				}
				xyz[k] = v
			}
			w.SetStream(s, append(w.Stream(s), motion.Reading{X: xyz[0], Y: xyz[1], Z: xyz[2], Timestamp: ts}))
		}
	}
	return w, nil
}
