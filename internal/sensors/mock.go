// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// gait describes the synthetic motion of one mock activity.
type gait struct {
	name      string
	freqHz    float64 // step frequency
	accelAmpG float64
	gyroAmp   float64 // deg/s
}

var mockGaits = []gait{
	{name: "Standing", freqHz: 0.2, accelAmpG: 0.02, gyroAmp: 2},
	{name: "Walking", freqHz: 1.8, accelAmpG: 0.35, gyroAmp: 40},
	{name: "Running", freqHz: 2.8, accelAmpG: 1.1, gyroAmp: 150},
}

// MockSource generates smooth gait-like signals at the configured
// per-sensor intervals, in g, deg/s and µT. It cycles through a few gaits
// so the timeline has something to show.
type MockSource struct {
	AccelInterval time.Duration
	GyroInterval  time.Duration
	MagInterval   time.Duration
	GaitPeriod    time.Duration // time spent in each gait, default 45s

	start time.Time
	rng   *rand.Rand
}

// NewMockSource returns a mock source with the given intervals.
func NewMockSource(accel, gyro, mag time.Duration) *MockSource {
	return &MockSource{AccelInterval: accel, GyroInterval: gyro, MagInterval: mag}
}

// Gait returns the name of the gait being simulated at t.
func (m *MockSource) Gait(t time.Time) string {
	return m.gaitAt(t).name
}

func (m *MockSource) gaitAt(t time.Time) gait {
	period := m.GaitPeriod
	if period <= 0 {
		period = 45 * time.Second
	}
	idx := int(t.Sub(m.start)/period) % len(mockGaits)
	if idx < 0 {
		idx = 0
	}
	return mockGaits[idx]
}

// Sample returns the synthetic event for sensor s at time t.
func (m *MockSource) Sample(s motion.Sensor, t time.Time) motion.Event {
	g := m.gaitAt(t)
	elapsed := t.Sub(m.start).Seconds()
	w := 2 * math.Pi * g.freqHz * elapsed
	noise := func(scale float64) float64 {
		if m.rng == nil {
			return 0
		}
		return (m.rng.Float64()*2 - 1) * scale
	}

	ev := motion.Event{Sensor: s, Timestamp: t.UnixNano()}
	switch s {
	case motion.Accelerometer:
		ev.X = g.accelAmpG*0.5*math.Sin(w) + noise(0.01)
		ev.Y = g.accelAmpG*0.3*math.Cos(w*0.5) + noise(0.01)
		ev.Z = 1 + g.accelAmpG*math.Sin(2*w) + noise(0.01)
	case motion.Gyroscope:
		ev.X = g.gyroAmp*math.Cos(w) + noise(0.5)
		ev.Y = g.gyroAmp*0.4*math.Sin(w) + noise(0.5)
		ev.Z = g.gyroAmp*0.2*math.Sin(0.5*w) + noise(0.5)
	case motion.Magnetometer:
		heading := 0.3 * math.Sin(elapsed*0.05)
		ev.X = 22*math.Cos(heading) + noise(0.2)
		ev.Y = 22*math.Sin(heading) + noise(0.2)
		ev.Z = -40 + noise(0.2)
	}
	return ev
}

// Run emits samples on three independent tickers until ctx is cancelled.
func (m *MockSource) Run(ctx context.Context, emit func(motion.Event)) error {
	if m.start.IsZero() {
		m.start = time.Now()
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(m.start.UnixNano()))
	}

	tick := func(d time.Duration) *time.Ticker {
		if d <= 0 {
			d = 20 * time.Millisecond
		}
		return time.NewTicker(d)
	}
	accel := tick(m.AccelInterval)
	defer accel.Stop()
	gyro := tick(m.GyroInterval)
	defer gyro.Stop()
	mag := tick(m.MagInterval)
	defer mag.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-accel.C:
			emit(m.Sample(motion.Accelerometer, t))
		case t := <-gyro.C:
			emit(m.Sample(motion.Gyroscope, t))
		case t := <-mag.C:
			emit(m.Sample(motion.Magnetometer, t))
		}
	}
}
