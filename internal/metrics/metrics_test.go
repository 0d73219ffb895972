package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

type fakeStats struct{}

func (fakeStats) Buffered(s motion.Sensor) int { return int(s) + 10 }
func (fakeStats) Dropped() uint64              { return 3 }

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetricsExposition(t *testing.T) {
	m := New(fakeStats{})
	m.Cycle("classified")
	m.Cycle("classified")
	m.Cycle("insufficient_data")
	m.ClassifyRequest(120 * time.Millisecond)
	m.Activity("Walking", 4)

	body := scrape(t, m)
	for _, want := range []string{
		`recognizer_cycles_total{outcome="classified"} 2`,
		`recognizer_cycles_total{outcome="insufficient_data"} 1`,
		`recognizer_classify_duration_seconds_count 1`,
		`recognizer_timeline_length 4`,
		`recognizer_activities_total{label="Walking"} 1`,
		`recognizer_buffered_readings{sensor="Gyroscope"} 11`,
		`recognizer_dropped_events_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, body)
		}
	}
}

func TestWrapHandlerRecordsStatus(t *testing.T) {
	m := New(nil)
	h := m.WrapHandler("/api/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))
	if body := scrape(t, m); !strings.Contains(body, `http_requests_total{route="/api/x",status="418"} 1`) {
		t.Fatalf("request not counted:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Cycle("classified")
	m.ClassifyRequest(time.Second)
	m.Activity("Running", 1)
	m.TimelineReset()
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have no registry")
	}
}
