package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveAndExpose(t *testing.T) {
	m := New()

	m.ObserveOperation("claim", "ok")
	m.ObserveOperation("claim", "not_recipient")
	m.ObserveOperation("claim", "ok")
	m.SetRecords(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("claim", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("claim", "not_recipient")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Records))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pet_registry_operations_total")
}
