package domain

import "time"

// InstanceRange derives the concrete date range of the budget's period
// instance, anchored at StartDate. Boundaries are computed in loc.
//
// A budget is a template, but only the single instance anchored at
// StartDate is ever materialised; there is no rolling advancement to the
// next month or year.
//
//	monthly  [StartDate, end of StartDate's calendar month]
//	yearly   [StartDate, last day of the month before the one-year mark]
//	custom   [StartDate, end-of-day(EndDate)]
//
// A custom budget without an end date degrades to monthly semantics
// rather than failing; creation-time validation makes that unreachable
// for new rows, but legacy rows exist.
func (b *Budget) InstanceRange(loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	start := b.StartDate.In(loc)

	switch {
	case b.Period == BudgetYearly:
		// Day 0 of the anniversary month, i.e. the last day of the
		// preceding month one year out.
		end := time.Date(start.Year()+1, start.Month(), 0, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: endOfDay(end, loc)}

	case b.Period == BudgetCustom && b.EndDate != nil:
		return DateRange{Start: start, End: endOfDay(*b.EndDate, loc)}

	default:
		// Monthly, and the custom-without-end fallback.
		end := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: endOfDay(end, loc)}
	}
}

// Validate checks the budget definition invariants enforced at write time.
func (b *Budget) Validate() error {
	if b.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if b.Amount <= 0 {
		return &ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if !ValidBudgetPeriod(b.Period) {
		return &ErrValidation{Field: "period", Message: "must be monthly, yearly or custom"}
	}
	if b.StartDate.IsZero() {
		return &ErrValidation{Field: "start_date", Message: "required"}
	}
	if b.Period == BudgetCustom {
		if b.EndDate == nil {
			return &ErrValidation{Field: "end_date", Message: "required for custom period"}
		}
		if b.EndDate.Before(b.StartDate) {
			return &ErrValidation{Field: "end_date", Message: "must not precede start date"}
		}
	}
	return nil
}
