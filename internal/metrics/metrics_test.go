package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Houeta/yacht-watch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ObserveChanges(t *testing.T) {
	run := metrics.NewRun()
	run.ObserveChanges(3, 1, 2)

	assert.InDelta(t, 3, testutil.ToFloat64(run.Changes.WithLabelValues("added")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(run.Changes.WithLabelValues("removed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(run.Changes.WithLabelValues("changed")), 0)
}

func TestRun_Push(t *testing.T) {
	var (
		gotPath string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	run := metrics.NewRun()
	run.ListingsScraped.Set(42)

	require.NoError(t, run.Push(t.Context(), srv.URL, "yacht_watch", time.Now().Add(-time.Second)))
	assert.Equal(t, "/metrics/job/yacht_watch", gotPath)
	assert.NotEmpty(t, gotBody)
	assert.GreaterOrEqual(t, testutil.ToFloat64(run.Duration), 1.0)
}

func TestRun_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	err := metrics.NewRun().Push(t.Context(), srv.URL, "yacht_watch", time.Now())
	require.ErrorContains(t, err, "failed to push metrics")
}
