// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"strings"
)

// Reading is a single timestamped 3-axis sample.
type Reading struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Timestamp int64   `json:"timestamp"` // nanoseconds
}

// Sensor identifies one of the three motion streams.
type Sensor int

const (
	Accelerometer Sensor = iota
	Gyroscope
	Magnetometer
)

// Sensors lists the streams in CSV column order.
var Sensors = []Sensor{Accelerometer, Gyroscope, Magnetometer}

var sensorNames = map[Sensor]string{
	Accelerometer: "Accelerometer",
	Gyroscope:     "Gyroscope",
	Magnetometer:  "Magnetometer",
}

func (s Sensor) String() string {
	if n, ok := sensorNames[s]; ok {
		return n
	}
	return "Unknown"
}

// ParseSensor accepts "accelerometer", "gyroscope", "magnetometer" (any case)
// and the one-letter codes used by serial sensor boards ("A", "G", "M").
func ParseSensor(name string) (Sensor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "accelerometer", "accel", "a":
		return Accelerometer, nil
	case "gyroscope", "gyro", "g":
		return Gyroscope, nil
	case "magnetometer", "mag", "m":
		return Magnetometer, nil
	}
	return 0, fmt.Errorf("unknown sensor %q", name)
}

// SensorWindow is a snapshot of the three streams, each ordered by timestamp.
type SensorWindow struct {
	Accelerometer []Reading `json:"accelerometer"`
	Gyroscope     []Reading `json:"gyroscope"`
	Magnetometer  []Reading `json:"magnetometer"`
}

// Stream returns the readings of one sensor.
func (w SensorWindow) Stream(s Sensor) []Reading {
	switch s {
	case Accelerometer:
		return w.Accelerometer
	case Gyroscope:
		return w.Gyroscope
	case Magnetometer:
		return w.Magnetometer
	}
	return nil
}

// SetStream replaces the readings of one sensor.
func (w *SensorWindow) SetStream(s Sensor, readings []Reading) {
	switch s {
	case Accelerometer:
		w.Accelerometer = readings
	case Gyroscope:
		w.Gyroscope = readings
	case Magnetometer:
		w.Magnetometer = readings
	}
}

// Len returns the total number of readings across all streams.
func (w SensorWindow) Len() int {
	return len(w.Accelerometer) + len(w.Gyroscope) + len(w.Magnetometer)
}

// Event is a raw sensor callback before normalization.
type Event struct {
	Sensor    Sensor
	X, Y, Z   float64
	Timestamp int64
}
