package authkit

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg), "re-registration is tolerated")

	before := testutil.ToFloat64(refreshTotal.WithLabelValues("ok"))
	recordRefreshOutcome("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(refreshTotal.WithLabelValues("ok")))

	beforeReplays := testutil.ToFloat64(transportReplaysTotal)
	recordTransportReplay()
	assert.Equal(t, beforeReplays+1, testutil.ToFloat64(transportReplaysTotal))
}
