package domain

import "fmt"

// DefaultSafetyThreshold is the default maximum change percentage the
// safety gate allows before pausing a deployment.
const DefaultSafetyThreshold = 30.0

// GateDecision is the outcome of a safety gate evaluation.
type GateDecision struct {
	// Proceed is true when deployment may continue.
	Proceed bool

	// Reason explains a pause. Empty when Proceed is true.
	Reason string

	// ChangePercent is the computed change percentage.
	ChangePercent float64
}

// EvaluateSafetyGate decides whether a candidate snapshot is safe to deploy.
// The gate pauses when the change percentage exceeds thresholdPercent;
// a change exactly at the threshold still proceeds. Force bypasses the gate
// entirely and is the explicit override used by rollback and approval flows.
// Pure decision function, no I/O.
func EvaluateSafetyGate(oldCount int, changes ChangeSet, thresholdPercent float64, force bool) GateDecision {
	pct := ChangePercent(oldCount, changes)

	if force {
		return GateDecision{Proceed: true, ChangePercent: pct}
	}

	if pct > thresholdPercent {
		return GateDecision{
			Proceed: false,
			Reason: fmt.Sprintf(
				"safety threshold exceeded: %.1f%% of chunks changed (%d added, %d updated, %d removed of %d), threshold is %.1f%%",
				pct, changes.Added, changes.Updated, changes.Removed, oldCount, thresholdPercent),
			ChangePercent: pct,
		}
	}

	return GateDecision{Proceed: true, ChangePercent: pct}
}
