package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBuildCounters(t *testing.T) {
	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("failed", "NOT_FOUND"))
	BuildsTotal.WithLabelValues("failed", "NOT_FOUND").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BuildsTotal.WithLabelValues("failed", "NOT_FOUND")))

	BuildsInProgress.Inc()
	BuildsInProgress.Dec()
	assert.Equal(t, float64(0), testutil.ToFloat64(BuildsInProgress))
}
