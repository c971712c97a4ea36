package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderExposesStandardCollectorsAndBuildInfo(t *testing.T) {
	p := Init(BuildInfo{Version: "test", Revision: "r1", BuildDate: "now"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, `geoenrich_build_info{`)
	assert.Contains(t, body, `version="test"`)
}

func TestInstrumentsRecord(t *testing.T) {
	p := Init(BuildInfo{})
	in := NewInstruments(p.Registerer())

	in.RecordQuery("tiger-counties", OutcomeOK, 0.25, 3)
	in.RecordQuery("tiger-counties", OutcomeOK, 0.10, 0)
	in.RecordPages("tiger-counties", 2, true)
	in.RecordFallback("tiger-counties", "within")

	assert.Equal(t, 2.0, testutil.ToFloat64(in.Queries.WithLabelValues("tiger-counties", OutcomeOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(in.Features.WithLabelValues("tiger-counties")))
	assert.Equal(t, 2.0, testutil.ToFloat64(in.Pages.WithLabelValues("tiger-counties")))
	assert.Equal(t, 1.0, testutil.ToFloat64(in.CapHits.WithLabelValues("tiger-counties")))
	assert.Equal(t, 1.0, testutil.ToFloat64(in.Fallbacks.WithLabelValues("tiger-counties", "within")))
}

func TestInstrumentsNilReceiver(t *testing.T) {
	var in *Instruments
	assert.NotPanics(t, func() {
		in.RecordQuery("x", OutcomeEmpty, 0, 0)
		in.RecordPages("x", 1, false)
		in.RecordFallback("x", "circle")
	})
}
