package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncConcurrent(t *testing.T) {
	t.Parallel()
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Inc(Relays)
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(50), m.Get(Relays))
	require.Equal(t, uint64(0), m.Get(Joins))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.Inc(Joins)
	require.Equal(t, uint64(0), m.Get(Joins))
	require.Empty(t, m.Snapshot())
}

func TestPrometheusHandler(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	m := New()
	m.Inc(Joins)
	m.Inc(Joins)
	m.Inc(Broadcasts)

	w := httptest.NewRecorder()
	PrometheusHandler(m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	req.Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	req.Contains(body, "# TYPE huddle_events_total counter")
	req.Contains(body, `huddle_events_total{event="joins"} 2`)
	// Sorted by event name.
	req.Less(strings.Index(body, `event="broadcasts"`), strings.Index(body, `event="joins"`))
}

func TestPrometheusHandlerNil(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	PrometheusHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
