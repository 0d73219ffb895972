package timeline

import (
	"reflect"
	"sync"
	"testing"
)

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	tl := New()
	a := tl.Append("Walking", 0, 10, map[string]float64{"Walking": 0.8})
	b := tl.Append("Running", 10, 20, nil)
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", a.ID, b.ID)
	}
	if tl.Len() != 2 {
		t.Fatalf("expected 2 activities, got %d", tl.Len())
	}
	last, ok := tl.Last()
	if !ok || last.Label != "Running" {
		t.Fatalf("unexpected last %+v", last)
	}
}

func TestAppendCopiesProbabilities(t *testing.T) {
	tl := New()
	probs := map[string]float64{"Walking": 0.8}
	tl.Append("Walking", 0, 10, probs)
	probs["Walking"] = 0

	snap := tl.Snapshot()
	if snap[0].Probabilities["Walking"] != 0.8 {
		t.Fatalf("timeline aliased caller map")
	}
	snap[0].Probabilities["Walking"] = 0.1
	if tl.Snapshot()[0].Probabilities["Walking"] != 0.8 {
		t.Fatalf("snapshot aliased timeline map")
	}
}

func TestResetRestartsIDs(t *testing.T) {
	tl := New()
	tl.Append("Walking", 0, 1, nil)
	tl.Reset()
	if tl.Len() != 0 {
		t.Fatalf("expected empty timeline")
	}
	if a := tl.Append("Standing", 1, 2, nil); a.ID != 1 {
		t.Fatalf("expected id 1 after reset, got %d", a.ID)
	}
}

func TestConcurrentSnapshotsWhileAppending(t *testing.T) {
	tl := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			tl.Append("Walking", int64(i), int64(i+1), map[string]float64{"Walking": 1})
		}
	}()
	for i := 0; i < 100; i++ {
		snap := tl.Snapshot()
		for j := 1; j < len(snap); j++ {
			if snap[j].ID <= snap[j-1].ID {
				t.Fatalf("ids not increasing in snapshot")
			}
		}
	}
	wg.Wait()
}

func act(id uint64, label string, start, end int64) Activity {
	return Activity{ID: id, Label: label, StartTime: start, EndTime: end, Probabilities: map[string]float64{label: float64(id) / 10}}
}

func TestMergeCollapsesRuns(t *testing.T) {
	in := []Activity{
		act(1, "Walking", 0, 10),
		act(2, "Walking", 10, 20),
		act(3, "Running", 20, 30),
		act(4, "Walking", 30, 40),
		act(5, "Walking", 40, 50),
		act(6, "Walking", 50, 60),
	}
	got := Merge(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(got), got)
	}
	if got[0].ID != 1 || got[0].StartTime != 0 || got[0].EndTime != 20 {
		t.Fatalf("unexpected first entry %+v", got[0])
	}
	if got[1].ID != 3 || got[1].Label != "Running" {
		t.Fatalf("unexpected second entry %+v", got[1])
	}
	if got[2].ID != 4 || got[2].StartTime != 30 || got[2].EndTime != 60 {
		t.Fatalf("unexpected third entry %+v", got[2])
	}
	if got[2].Probabilities["Walking"] != 0.4 {
		t.Fatalf("retained entry should keep its own probabilities, got %+v", got[2].Probabilities)
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	in := []Activity{act(1, "Walking", 0, 10), act(2, "Walking", 10, 20)}
	before := []Activity{act(1, "Walking", 0, 10), act(2, "Walking", 10, 20)}
	out := Merge(in)
	out[0].Probabilities["Walking"] = 42
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	in := []Activity{
		act(1, "Sitting", 0, 5),
		act(2, "Sitting", 5, 9),
		act(3, "Standing", 9, 12),
		act(4, "Sitting", 12, 20),
		act(5, "Running", 20, 22),
		act(6, "Running", 22, 30),
	}
	once := Merge(in)
	twice := Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\n%+v\n%+v", once, twice)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
