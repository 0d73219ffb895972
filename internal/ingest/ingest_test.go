package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

func newRunning(t *testing.T, queue int) (*Ingestor, context.CancelFunc) {
	t.Helper()
	norm, err := motion.NewNormalizer(motion.UnitMS2, motion.UnitRadS)
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	in := New(norm, queue)
	ctx, cancel := context.WithCancel(context.Background())
	go in.Run(ctx)
	return in, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitIgnoredWhileIdle(t *testing.T) {
	in, cancel := newRunning(t, 16)
	defer cancel()

	if in.Submit(motion.Event{Sensor: motion.Accelerometer, Timestamp: 1}) {
		t.Fatalf("submit accepted while idle")
	}
	snap, err := in.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Len() != 0 {
		t.Fatalf("expected empty buffers, got %d readings", snap.Len())
	}
}

func TestSnapshotSeesSubmittedEvents(t *testing.T) {
	in, cancel := newRunning(t, 64)
	defer cancel()
	in.SetRecording(true)

	for i := int64(1); i <= 10; i++ {
		in.Submit(motion.Event{Sensor: motion.Accelerometer, X: float64(i), Timestamp: i})
		in.Submit(motion.Event{Sensor: motion.Gyroscope, Y: float64(i), Timestamp: i})
	}
	snap, err := in.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Accelerometer) != 10 || len(snap.Gyroscope) != 10 || len(snap.Magnetometer) != 0 {
		t.Fatalf("unexpected lengths %d/%d/%d", len(snap.Accelerometer), len(snap.Gyroscope), len(snap.Magnetometer))
	}
	for i, r := range snap.Accelerometer {
		if r.Timestamp != int64(i+1) {
			t.Fatalf("arrival order not preserved at %d: %+v", i, r)
		}
	}
	if in.Buffered(motion.Accelerometer) != 10 {
		t.Fatalf("expected 10 buffered accel readings, got %d", in.Buffered(motion.Accelerometer))
	}
	latest := in.Latest()
	if latest[motion.Gyroscope].Timestamp != 10 {
		t.Fatalf("unexpected latest gyro %+v", latest[motion.Gyroscope])
	}
	if _, ok := latest[motion.Magnetometer]; ok {
		t.Fatalf("no magnetometer reading expected")
	}
}

func TestSnapshotAndTrim(t *testing.T) {
	in, cancel := newRunning(t, 64)
	defer cancel()
	in.SetRecording(true)

	const second = int64(1e9)
	for i := int64(0); i <= 10; i++ {
		in.Submit(motion.Event{Sensor: motion.Accelerometer, Timestamp: i * second})
	}
	snap, err := in.SnapshotAndTrim(context.Background(), 10*second, 4)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Accelerometer) != 5 || snap.Accelerometer[0].Timestamp != 6*second {
		t.Fatalf("unexpected trimmed stream %+v", snap.Accelerometer)
	}
	if in.Buffered(motion.Accelerometer) != 5 {
		t.Fatalf("buffered count not updated after trim")
	}
}

func TestNormalizesOnSubmit(t *testing.T) {
	norm, _ := motion.NewNormalizer(motion.UnitG, motion.UnitRadS)
	in := New(norm, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go in.Run(ctx)
	in.SetRecording(true)

	in.Submit(motion.Event{Sensor: motion.Accelerometer, Z: 1, Timestamp: 1})
	snap, err := in.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := snap.Accelerometer[0].Z; got != motion.StandardGravity {
		t.Fatalf("expected %v m/s², got %v", motion.StandardGravity, got)
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	norm, _ := motion.NewNormalizer(motion.UnitMS2, motion.UnitRadS)
	in := New(norm, 2) // owner loop not running
	in.SetRecording(true)
	for i := 0; i < 5; i++ {
		in.Submit(motion.Event{Sensor: motion.Accelerometer, Timestamp: int64(i)})
	}
	if in.Accepted() != 2 || in.Dropped() != 3 {
		t.Fatalf("expected 2 accepted / 3 dropped, got %d / %d", in.Accepted(), in.Dropped())
	}
}

func TestSnapshotHonoursContext(t *testing.T) {
	norm, _ := motion.NewNormalizer(motion.UnitMS2, motion.UnitRadS)
	in := New(norm, 2) // no owner loop
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := in.Snapshot(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConcurrentProducersAndSnapshots(t *testing.T) {
	in, cancel := newRunning(t, 4096)
	defer cancel()
	in.SetRecording(true)

	var wg sync.WaitGroup
	for _, s := range motion.Sensors {
		wg.Add(1)
		go func(s motion.Sensor) {
			defer wg.Done()
			for i := int64(0); i < 500; i++ {
				in.Submit(motion.Event{Sensor: s, Timestamp: i})
			}
		}(s)
	}
	for i := 0; i < 20; i++ {
		snap, err := in.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		for _, s := range motion.Sensors {
			stream := snap.Stream(s)
			for j := 1; j < len(stream); j++ {
				if stream[j].Timestamp < stream[j-1].Timestamp {
					t.Fatalf("%s stream out of order", s)
				}
			}
		}
	}
	wg.Wait()
	snap, _ := in.Snapshot(context.Background())
	if got := uint64(snap.Len()) + in.Dropped(); got != 1500 {
		t.Fatalf("expected 1500 readings accounted for, got %d", got)
	}
}

// chanSource emits whatever is sent on its channel until cancelled.
type chanSource struct {
	events  chan motion.Event
	started chan struct{}
	stopped chan struct{}
}

func newChanSource() *chanSource {
	return &chanSource{
		events:  make(chan motion.Event),
		started: make(chan struct{}, 4),
		stopped: make(chan struct{}, 4),
	}
}

func (s *chanSource) Run(ctx context.Context, emit func(motion.Event)) error {
	s.started <- struct{}{}
	defer func() { s.stopped <- struct{}{} }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-s.events:
			emit(e)
		}
	}
}

func TestRecorderStateMachine(t *testing.T) {
	in, cancel := newRunning(t, 64)
	defer cancel()
	src := newChanSource()
	rec := NewRecorder(in, src)

	if err := rec.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("stop while idle: expected ErrNotRecording, got %v", err)
	}
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-src.started
	if err := rec.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second start: expected ErrAlreadyRecording, got %v", err)
	}
	if !rec.Recording() || !rec.Status().Recording {
		t.Fatalf("expected recording state")
	}

	src.events <- motion.Event{Sensor: motion.Accelerometer, Timestamp: 42}
	waitFor(t, func() bool { return in.Buffered(motion.Accelerometer) == 1 })

	if err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case <-src.stopped:
	default:
		t.Fatalf("source subscription not released by Stop")
	}
	if rec.Recording() || in.Recording() {
		t.Fatalf("expected idle after stop")
	}
	// buffers keep their history across stop
	snap, _ := in.Snapshot(context.Background())
	if len(snap.Accelerometer) != 1 {
		t.Fatalf("stop should not clear buffers")
	}

	// restart works
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	<-src.started
	if err := rec.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestRecorderReturnsToIdleWhenSourceFails(t *testing.T) {
	in, cancel := newRunning(t, 8)
	defer cancel()
	boom := errors.New("device unplugged")
	rec := NewRecorder(in, SourceFunc(func(ctx context.Context, emit func(motion.Event)) error {
		return boom
	}))
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !rec.Recording() })
	if st := rec.Status(); st.LastError != boom.Error() {
		t.Fatalf("expected last error %q, got %+v", boom, st)
	}
	if err := rec.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording after source failure, got %v", err)
	}
}
