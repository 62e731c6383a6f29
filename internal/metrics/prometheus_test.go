package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ogeth777/baseworld/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupIsIdempotentAndExposesInstruments(t *testing.T) {
	require.NoError(t, metrics.Setup())
	require.NoError(t, metrics.Setup())

	metrics.PaintCounterInc("accepted")
	metrics.PaintedCellsSet(7)
	metrics.EngineTimeCounterAdd("canvas", "paint")()
	metrics.PaymentVerificationObserve(3 * time.Second)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `baseworld_paints_total{result="accepted"} 1`))
	assert.True(t, strings.Contains(body, "baseworld_painted_cells 7"))
	assert.True(t, strings.Contains(body, `baseworld_payment_verification_seconds_bucket{le="4"} 1`))
}

func TestAddInstrumentRejectsUnknownType(t *testing.T) {
	_, err := metrics.AddInstrument(metrics.Histogram+1, "nope")
	assert.ErrorIs(t, err, metrics.ErrInstrumentNotSupported)
}

func TestVectorGaugeIsNotSupported(t *testing.T) {
	_, err := metrics.AddInstrument(metrics.Gauge, "vector_gauge", metrics.Vectors("a"))
	assert.ErrorIs(t, err, metrics.ErrInstrumentNotSupported)
}
