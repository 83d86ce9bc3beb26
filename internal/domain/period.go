package domain

import "time"

// Reporting period tokens accepted by ResolvePeriod.
const (
	PeriodToday     = "today"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodLastMonth = "last_month"
	PeriodYear      = "year"
	PeriodCustom    = "custom"
)

// ResolvePeriod converts a symbolic period token into a concrete date
// range. The reference instant is passed explicitly so the function stays
// pure and deterministic under test; every day boundary is computed in loc
// so server-local and UTC boundaries never mix.
//
// Semantics:
//
//	today      [start-of-day(now), end-of-day(now)]
//	week       [Monday of now's week, end-of-day(now)]
//	month      [1st of now's month, end-of-day(now)]
//	last_month the full previous calendar month, both bounds fixed
//	year       [Jan 1 of now's year, end-of-day(now)]
//	custom     [start-of-day(start), end-of-day(end)]; both bounds required
//
// Any unrecognised token resolves with month semantics. Legacy callers
// depend on that fallback, so it must not become an error.
func ResolvePeriod(token string, customStart, customEnd *time.Time, now time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	if token == PeriodCustom {
		if customStart == nil || customEnd == nil {
			return DateRange{}, &ErrInvalidPeriod{Token: token, Reason: "custom period requires both start and end dates"}
		}
		start := startOfDay(*customStart, loc)
		end := endOfDay(*customEnd, loc)
		if end.Before(start) {
			return DateRange{}, &ErrInvalidPeriod{Token: token, Reason: "end date precedes start date"}
		}
		return DateRange{Start: start, End: end}, nil
	}

	switch token {
	case PeriodToday:
		return DateRange{Start: startOfDay(now, loc), End: endOfDay(now, loc)}, nil

	case PeriodWeek:
		// Monday-anchored; Go weekday has Sunday == 0.
		offset := (int(now.Weekday()) + 6) % 7
		monday := startOfDay(now, loc).AddDate(0, 0, -offset)
		return DateRange{Start: monday, End: endOfDay(now, loc)}, nil

	case PeriodLastMonth:
		firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		start := firstOfThisMonth.AddDate(0, -1, 0)
		end := firstOfThisMonth.Add(-time.Millisecond)
		return DateRange{Start: start, End: end}, nil

	case PeriodYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: endOfDay(now, loc)}, nil

	default:
		// PeriodMonth and everything unrecognised.
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: endOfDay(now, loc)}, nil
	}
}

// startOfDay returns midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// endOfDay returns 23:59:59.999 of t's calendar day in loc.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}
