package domain

import "math"

// Progress returns the percentage of the goal's target reached, clamped
// to [0, 100]. A non-positive target yields 0 rather than a division
// error.
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return math.Min(100, (g.CurrentAmount/g.TargetAmount)*100)
}

// ApplyContribution returns a copy of the goal with CurrentAmount set to
// newCurrent and IsAchieved recomputed. The second return value reports
// whether this call is the achievement transition, which callers use to
// trigger a one-time celebratory notification; subsequent calls on an
// already-achieved goal report false there.
//
// newCurrent must be a finite, non-negative number; anything else is
// rejected with ErrInvalidAmount. Values above the target are accepted and
// simply leave the goal achieved.
func ApplyContribution(g Goal, newCurrent float64) (Goal, bool, error) {
	if math.IsNaN(newCurrent) || math.IsInf(newCurrent, 0) {
		return g, false, &ErrInvalidAmount{Field: "current_amount", Value: newCurrent}
	}
	if newCurrent < 0 {
		return g, false, &ErrInvalidAmount{Field: "current_amount", Value: newCurrent}
	}

	wasAchieved := g.IsAchieved
	g.CurrentAmount = newCurrent
	g.IsAchieved = newCurrent >= g.TargetAmount

	return g, g.IsAchieved && !wasAchieved, nil
}
