package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_AllVariablesNonNil(t *testing.T) {
	t.Parallel()

	vars := []struct {
		name string
		val  any
	}{
		{"RunsTotal", RunsTotal},
		{"StageLatency", StageLatency},
		{"AffiliatesLoaded", AffiliatesLoaded},
		{"CallsBuiltTotal", CallsBuiltTotal},
		{"BatchesEmittedTotal", BatchesEmittedTotal},
		{"BatchCalls", BatchCalls},
		{"CallErrors", CallErrors},
		{"ClientCallsTotal", ClientCallsTotal},
		{"ClientLatency", ClientLatency},
		{"ClientRetriesTotal", ClientRetriesTotal},
		{"RateLimitWaits", RateLimitWaits},
		{"EventsResolvedTotal", EventsResolvedTotal},
		{"ChainsTruncatedTotal", ChainsTruncatedTotal},
		{"AlertsSentTotal", AlertsSentTotal},
	}

	for _, v := range vars {
		assert.NotNilf(t, v.val, "%s should not be nil", v.name)
	}
}

func TestMetrics_UpdateNoPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RunsTotal.WithLabelValues("transactions", "success").Inc() })
	assert.NotPanics(t, func() { StageLatency.WithLabelValues("load").Observe(0.2) })
	assert.NotPanics(t, func() { AffiliatesLoaded.WithLabelValues("bajun").Set(42) })
	assert.NotPanics(t, func() { CallsBuiltTotal.WithLabelValues("bajun").Inc() })
	assert.NotPanics(t, func() { BatchesEmittedTotal.WithLabelValues("bajun").Inc() })
	assert.NotPanics(t, func() { BatchCalls.WithLabelValues("bajun").Observe(100) })
	assert.NotPanics(t, func() { CallErrors.WithLabelValues("bajun").Inc() })
	assert.NotPanics(t, func() { ClientCallsTotal.WithLabelValues("subscan", "scan_event", "ok").Inc() })
	assert.NotPanics(t, func() { ClientLatency.WithLabelValues("chain", "state_getMetadata").Observe(1.5) })
	assert.NotPanics(t, func() { ClientRetriesTotal.WithLabelValues("subscan", "scan_event").Inc() })
	assert.NotPanics(t, func() { RateLimitWaits.WithLabelValues("subscan").Inc() })
	assert.NotPanics(t, func() { EventsResolvedTotal.WithLabelValues("bajun").Inc() })
	assert.NotPanics(t, func() { ChainsTruncatedTotal.WithLabelValues("bajun").Inc() })
	assert.NotPanics(t, func() { AlertsSentTotal.WithLabelValues("webhook", "RUN_SUCCEEDED").Inc() })
}

func TestWriteTextfile(t *testing.T) {
	CallsBuiltTotal.WithLabelValues("textfile-test").Add(3)
	path := filepath.Join(t.TempDir(), "affiliatefix.prom")

	require.NoError(t, WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `affiliatefix_batcher_calls_built_total{network="textfile-test"} 3`)
}

func TestWriteTextfile_EmptyPathNoop(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}
