package buffer

import (
	"testing"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

const second = int64(1e9)

func TestTrimKeepsOnlyRecentReadingsInOrder(t *testing.T) {
	s := New()
	// out-of-order timestamps are allowed per stream; order must survive trimming
	ts := []int64{0, 3, 1, 7, 5, 9, 2, 8}
	for _, v := range ts {
		s.Append(motion.Accelerometer, motion.Reading{X: float64(v), Timestamp: v * second})
		s.Append(motion.Gyroscope, motion.Reading{Y: float64(v), Timestamp: v * second})
	}
	s.TrimOlderThan(10*second, 5)

	want := []int64{7, 5, 9, 8}
	for _, sensor := range []motion.Sensor{motion.Accelerometer, motion.Gyroscope} {
		got := s.Snapshot().Stream(sensor)
		if len(got) != len(want) {
			t.Fatalf("%v: expected %d readings, got %d", sensor, len(want), len(got))
		}
		for i, r := range got {
			if r.Timestamp != want[i]*second {
				t.Fatalf("%v[%d]: expected t=%ds, got %d", sensor, i, want[i], r.Timestamp)
			}
			if r.Timestamp < 5*second {
				t.Fatalf("%v: reading older than cutoff survived: %d", sensor, r.Timestamp)
			}
		}
	}
}

func TestTrimBoundaryIsInclusive(t *testing.T) {
	s := New()
	s.Append(motion.Magnetometer, motion.Reading{Timestamp: 4 * second})
	s.Append(motion.Magnetometer, motion.Reading{Timestamp: 5 * second})
	s.TrimOlderThan(10*second, 6)
	if s.Len(motion.Magnetometer) != 2 {
		t.Fatalf("expected reading at exactly now-retention to be kept, have %d", s.Len(motion.Magnetometer))
	}
	s.TrimOlderThan(10*second, 5)
	got := s.Snapshot().Magnetometer
	if len(got) != 1 || got[0].Timestamp != 5*second {
		t.Fatalf("expected only the 5s reading after a 5s retention, have %+v", got)
	}
}

func TestTrimCutoffIsRounded(t *testing.T) {
	s := New()
	// 4.1*1e9 is 4099999999.9999995 in float64
	s.Append(motion.Accelerometer, motion.Reading{Timestamp: 5900 * int64(1e6)})
	s.TrimOlderThan(10*second, 4.1)
	if s.Len(motion.Accelerometer) != 1 {
		t.Fatalf("reading exactly at now-4.1s should survive")
	}
}

func TestTrimEverything(t *testing.T) {
	s := New()
	for i := int64(0); i < 100; i++ {
		s.Append(motion.Accelerometer, motion.Reading{Timestamp: i})
	}
	s.TrimOlderThan(1000*second, 1)
	if s.Len(motion.Accelerometer) != 0 {
		t.Fatalf("expected empty stream, got %d", s.Len(motion.Accelerometer))
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := New()
	s.Append(motion.Accelerometer, motion.Reading{X: 1, Timestamp: 1})
	snap := s.Snapshot()

	s.Append(motion.Accelerometer, motion.Reading{X: 2, Timestamp: 2})
	s.TrimOlderThan(3, 0)
	if len(snap.Accelerometer) != 1 || snap.Accelerometer[0].X != 1 {
		t.Fatalf("snapshot changed after later mutations: %+v", snap.Accelerometer)
	}

	snap.Accelerometer[0].X = 99
	if r, _ := s.Latest(motion.Accelerometer); r.X == 99 {
		t.Fatalf("mutating the snapshot leaked into the buffer")
	}
}

func TestLatestAndClear(t *testing.T) {
	s := New()
	if _, ok := s.Latest(motion.Gyroscope); ok {
		t.Fatalf("empty stream should have no latest reading")
	}
	s.Append(motion.Gyroscope, motion.Reading{Z: 1, Timestamp: 1})
	s.Append(motion.Gyroscope, motion.Reading{Z: 2, Timestamp: 2})
	if r, ok := s.Latest(motion.Gyroscope); !ok || r.Z != 2 {
		t.Fatalf("unexpected latest %+v", r)
	}
	s.Clear()
	if s.Len(motion.Gyroscope) != 0 {
		t.Fatalf("clear left readings behind")
	}
}
