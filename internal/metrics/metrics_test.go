package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMerge(t *testing.T) {
	r := New()

	r.RecordMerge("rider", OutcomeMerged, 4, 1)
	r.RecordMerge("rider", OutcomeMerged, 2, 0)
	r.RecordMerge("rider", OutcomeNotFound, 9, 9)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.merges.WithLabelValues("rider", OutcomeMerged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.merges.WithLabelValues("rider", OutcomeNotFound)))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.resultsMoved.WithLabelValues("rider")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resultsDropped.WithLabelValues("rider")))
}

func TestObserveAnalysis(t *testing.T) {
	r := New()

	r.ObserveAnalysis("club", 20*time.Millisecond, 7)
	r.RecordBatchFailure("club")

	assert.Equal(t, 7.0, testutil.ToFloat64(r.candidateGroups.WithLabelValues("club")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.batchFailures.WithLabelValues("club")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.analysisDuration))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordMerge("rider", OutcomeMerged, 1, 1)
		r.RecordBatchFailure("rider")
		r.ObserveAnalysis("rider", time.Second, 1)
	})
	assert.NotNil(t, r.Handler())
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordMerge("club", OutcomeMerged, 3, 0)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hubadmin_dedupe_merges_total{kind="club",outcome="merged"} 1`)
	assert.Contains(t, rec.Body.String(), `hubadmin_dedupe_results_moved_total{kind="club"} 3`)
}
