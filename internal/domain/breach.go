package domain

// Budget alert thresholds, in percent of the budget amount.
const (
	Threshold80  = 80.0
	Threshold100 = 100.0
)

// EvaluateThresholds decides whether threshold alerts should fire for the
// given consumption percentage, based on the prior notification state.
//
// The 80% alert fires exactly once when usage lands in [80, 100); the 100%
// alert fires exactly once at or above 100. A threshold never re-fires
// until the state is reset externally (typically when a new budget period
// instance begins). The prior state is not mutated; callers persist the
// returned state.
//
// Delivery policy (notificationsEnabled, user email preferences) is the
// caller's concern.
func EvaluateThresholds(prior NotificationState, percentageUsed float64) BreachDecision {
	decision := BreachDecision{State: prior}

	switch {
	case percentageUsed >= Threshold100:
		if !prior.NotifiedAt100 {
			decision.Fire100 = true
			decision.State.NotifiedAt100 = true
		}
	case percentageUsed >= Threshold80:
		if !prior.NotifiedAt80 {
			decision.Fire80 = true
			decision.State.NotifiedAt80 = true
		}
	}

	return decision
}
