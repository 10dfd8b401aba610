package slo

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestUpdateRuntimeAvailability(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
	}{
		{"fully available", 1.0},
		{"circuit open", 0.0},
		{"partially available", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			UpdateRuntimeAvailability(tt.ratio)
			assert.Equal(t, tt.ratio, testutil.ToFloat64(RuntimeAvailability))
		})
	}
}

func TestUpdateLaunchLatencyP95(t *testing.T) {
	UpdateLaunchLatencyP95(2.5)
	assert.Equal(t, 2.5, testutil.ToFloat64(LaunchLatencyP95))

	UpdateLaunchLatencyP95(0.1)
	assert.Equal(t, 0.1, testutil.ToFloat64(LaunchLatencyP95))
}

func TestUpdateLaunchFailureRate(t *testing.T) {
	UpdateLaunchFailureRate(0.02)
	assert.Equal(t, 0.02, testutil.ToFloat64(LaunchFailureRate))
}

func TestSLOTargets(t *testing.T) {
	// The targets are part of the daemon's monitoring contract; keep them
	// in sync with the alert rules.
	assert.Equal(t, 99.5, RuntimeAvailabilitySLO)
	assert.Equal(t, 5.0, LaunchLatencyP95SLO)
	assert.Equal(t, 0.01, LaunchFailureRateSLO)
}
