package encoding

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

func TestToRowsAlignsByTimestampUnion(t *testing.T) {
	w := motion.SensorWindow{
		Accelerometer: []motion.Reading{{X: 1, Y: 2, Z: 3, Timestamp: 30}, {X: 1.23456, Y: -0.5, Z: 9.81, Timestamp: 10}},
		Gyroscope:     []motion.Reading{{X: 0.1, Y: 0.2, Z: 0.3, Timestamp: 10}},
		Magnetometer:  []motion.Reading{{X: 40, Y: 41, Z: 42, Timestamp: 20}},
	}
	got := ToRows(w)
	want := strings.Join([]string{
		"timestamp,Accelerometer_x,Accelerometer_y,Accelerometer_z,Gyroscope_x,Gyroscope_y,Gyroscope_z,Magnetometer_x,Magnetometer_y,Magnetometer_z",
		"10,1.235,-0.500,9.810,0.100,0.200,0.300,null,null,null",
		"20,null,null,null,null,null,null,40.000,41.000,42.000",
		"30,1.000,2.000,3.000,null,null,null,null,null,null",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected rows:\n%s\nwant:\n%s", got, want)
	}
}

func TestToRowsSortsNumerically(t *testing.T) {
	// lexicographic order would put 100 before 9
	w := motion.SensorWindow{Accelerometer: []motion.Reading{{Timestamp: 100}, {Timestamp: 9}}}
	lines := strings.Split(strings.TrimSpace(ToRows(w)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "9,") || !strings.HasPrefix(lines[2], "100,") {
		t.Fatalf("rows not in numeric order: %q", lines)
	}
}

func TestToRowsDuplicateTimestampLastWins(t *testing.T) {
	w := motion.SensorWindow{Gyroscope: []motion.Reading{{X: 1, Timestamp: 5}, {X: 2, Timestamp: 5}}}
	lines := strings.Split(strings.TrimSpace(ToRows(w)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a single data row, got %q", lines)
	}
	if lines[1] != "5,null,null,null,2.000,0.000,0.000,null,null,null" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestToRowsEmptyWindowIsHeaderOnly(t *testing.T) {
	got := ToRows(motion.SensorWindow{})
	if got != strings.Join(Header, ",")+"\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

type tuple struct {
	ts      int64
	sensor  motion.Sensor
	x, y, z float64
}

func tuples(w motion.SensorWindow) map[int64]map[motion.Sensor]tuple {
	out := make(map[int64]map[motion.Sensor]tuple)
	for _, s := range motion.Sensors {
		for _, r := range w.Stream(s) {
			if out[r.Timestamp] == nil {
				out[r.Timestamp] = make(map[motion.Sensor]tuple)
			}
			out[r.Timestamp][s] = tuple{r.Timestamp, s, r.X, r.Y, r.Z}
		}
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var w motion.SensorWindow
	for i := int64(0); i < 200; i++ {
		ts := 1_700_000_000_000_000_000 + i*20_000_000
		w.Accelerometer = append(w.Accelerometer, motion.Reading{X: math.Sin(float64(i)), Y: 0.001 * float64(i), Z: 9.80665, Timestamp: ts})
		if i%2 == 0 {
			w.Gyroscope = append(w.Gyroscope, motion.Reading{X: -0.3333, Y: 1.0005, Z: 2, Timestamp: ts})
		}
		if i%5 == 0 {
			w.Magnetometer = append(w.Magnetometer, motion.Reading{X: 25.4, Y: -3.2, Z: 41, Timestamp: ts + 7})
		}
	}

	payload, err := Encode(w)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(payload) == 0 || payload[0] != 0x1f || payload[1] != 0x8b {
		t.Fatalf("payload is not gzip")
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := tuples(w)
	have := tuples(got)
	if len(want) != len(have) {
		t.Fatalf("expected %d timestamps, got %d", len(want), len(have))
	}
	for ts, bySensor := range want {
		for s, tw := range bySensor {
			th, ok := have[ts][s]
			if !ok {
				t.Fatalf("missing %v reading at %d", s, ts)
			}
			for _, d := range []float64{th.x - tw.x, th.y - tw.y, th.z - tw.z} {
				if math.Abs(d) > 0.0005+1e-9 {
					t.Fatalf("%v at %d: %+v differs from %+v beyond rounding", s, ts, th, tw)
				}
			}
		}
		if len(have[ts]) != len(bySensor) {
			t.Fatalf("unexpected extra readings at %d: %+v", ts, have[ts])
		}
	}
}

func TestCompressRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("timestamp,null,null\n"), 100)
	z, err := Compress(in)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(z) >= len(in) {
		t.Fatalf("expected repetitive input to shrink: %d >= %d", len(z), len(in))
	}
	out, err := Decompress(z)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatalf("round trip mismatch")
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := Decompress([]byte("not gzip")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseRowsRejectsBadHeader(t *testing.T) {
	_, err := ParseRows(strings.NewReader("time,a,b,c,d,e,f,g,h,i\n"))
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("expected ErrBadHeader, got %v", err)
	}
}

func TestParseRowsRejectsBadValue(t *testing.T) {
	text := strings.Join(Header, ",") + "\n1,abc,0,0,null,null,null,null,null,null\n"
	if _, err := ParseRows(strings.NewReader(text)); err == nil {
		t.Fatalf("expected parse error")
	}
}
