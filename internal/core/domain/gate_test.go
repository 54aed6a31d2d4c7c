package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateAtThresholdProceeds(t *testing.T) {
	// Exactly 30 of 100 changed with a 30% threshold: at-threshold is
	// not over-threshold.
	changes := ChangeSet{Added: 10, Updated: 10, Removed: 10}

	decision := EvaluateSafetyGate(100, changes, 30, false)

	assert.True(t, decision.Proceed)
	assert.Empty(t, decision.Reason)
	assert.Equal(t, 30.0, decision.ChangePercent)
}

func TestGateOverThresholdPauses(t *testing.T) {
	changes := ChangeSet{Added: 11, Updated: 10, Removed: 10}

	decision := EvaluateSafetyGate(100, changes, 30, false)

	assert.False(t, decision.Proceed)
	assert.Contains(t, decision.Reason, "31.0%")
	assert.Contains(t, decision.Reason, "30.0%")
}

func TestGateFirstSyncAlwaysProceeds(t *testing.T) {
	decision := EvaluateSafetyGate(0, ChangeSet{Added: 10000}, 30, false)

	assert.True(t, decision.Proceed)
	assert.Equal(t, 0.0, decision.ChangePercent)
}

func TestGateForceBypassesThreshold(t *testing.T) {
	changes := ChangeSet{Removed: 100}

	decision := EvaluateSafetyGate(100, changes, 30, true)

	assert.True(t, decision.Proceed)
	assert.Equal(t, 100.0, decision.ChangePercent)
}

func TestGatePauseReasonIncludesCounts(t *testing.T) {
	changes := ChangeSet{Removed: 6}

	decision := EvaluateSafetyGate(10, changes, 30, false)

	assert.False(t, decision.Proceed)
	assert.Contains(t, decision.Reason, "60")
	assert.Contains(t, decision.Reason, "6 removed")
}
