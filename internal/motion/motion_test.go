package motion

import (
	"math"
	"testing"
)

func TestParseSensor(t *testing.T) {
	cases := map[string]Sensor{
		"accelerometer": Accelerometer,
		"Gyroscope":     Gyroscope,
		"M":             Magnetometer,
		" a ":           Accelerometer,
	}
	for in, want := range cases {
		got, err := ParseSensor(in)
		if err != nil {
			t.Fatalf("ParseSensor(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSensor(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseSensor("barometer"); err == nil {
		t.Fatalf("expected error for unknown sensor")
	}
}

func TestNormalizeAccelFromG(t *testing.T) {
	n, err := NewNormalizer(UnitG, UnitRadS)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	r := n.Normalize(Event{Sensor: Accelerometer, X: 1, Y: 0, Z: -0.5, Timestamp: 42})
	if math.Abs(r.X-StandardGravity) > 1e-9 || math.Abs(r.Z+StandardGravity/2) > 1e-9 {
		t.Fatalf("unexpected accel reading %+v", r)
	}
	if r.Timestamp != 42 {
		t.Fatalf("timestamp changed: %d", r.Timestamp)
	}
	// gyro already in rad/s
	g := n.Normalize(Event{Sensor: Gyroscope, X: 0.25})
	if g.X != 0.25 {
		t.Fatalf("gyro should pass through, got %v", g.X)
	}
}

func TestNormalizeGyroFromDegrees(t *testing.T) {
	n, err := NewNormalizer(UnitMS2, UnitDegS)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	g := n.Normalize(Event{Sensor: Gyroscope, X: 180})
	if math.Abs(g.X-math.Pi) > 1e-9 {
		t.Fatalf("expected pi rad/s, got %v", g.X)
	}
	m := n.Normalize(Event{Sensor: Magnetometer, X: 30})
	if m.X != 30 {
		t.Fatalf("mag should pass through, got %v", m.X)
	}
}

func TestNewNormalizerRejectsUnknownUnits(t *testing.T) {
	if _, err := NewNormalizer("furlong", UnitRadS); err == nil {
		t.Fatalf("expected accel unit error")
	}
	if _, err := NewNormalizer(UnitG, "rpm"); err == nil {
		t.Fatalf("expected gyro unit error")
	}
}

func TestIMURawEvents(t *testing.T) {
	raw := IMURaw{Ax: 16384, Gz: -16384, Mx: 253}
	ev := raw.Events(7, 0, 1)
	if ev[0].Sensor != Accelerometer || math.Abs(ev[0].X-1.0) > 1e-9 {
		t.Fatalf("accel: %+v", ev[0])
	}
	if ev[1].Sensor != Gyroscope || math.Abs(ev[1].Z+250) > 1e-9 {
		t.Fatalf("gyro: %+v", ev[1])
	}
	if ev[2].Sensor != Magnetometer || math.Abs(ev[2].X-25.3) > 1e-9 {
		t.Fatalf("mag: %+v", ev[2])
	}
	for _, e := range ev {
		if e.Timestamp != 7 {
			t.Fatalf("timestamp not propagated: %+v", e)
		}
	}
}

func TestSensorWindowStream(t *testing.T) {
	var w SensorWindow
	w.SetStream(Gyroscope, []Reading{{X: 1}, {X: 2}})
	if len(w.Stream(Gyroscope)) != 2 || w.Len() != 2 {
		t.Fatalf("unexpected window %+v", w)
	}
	if w.Stream(Sensor(9)) != nil {
		t.Fatalf("unknown sensor should have no stream")
	}
}
