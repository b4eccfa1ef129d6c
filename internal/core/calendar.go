package core

import "time"

// SubtractMonths subtracts n calendar months from t, clamping the day to
// the last day of the resulting month when the original day doesn't exist
// there (per spec.md §9: "Feb 28 − 2 months = Dec 28; day clamp on short
// months"). Time-of-day is preserved from t.
func SubtractMonths(t time.Time, n int) time.Time {
	return AddMonths(t, -n)
}

// AddMonths adds n calendar months to t with day clamping, as SubtractMonths.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	totalMonths := int(month) - 1 + n
	newYear := year + totalMonths/12
	newMonth := totalMonths % 12
	if newMonth < 0 {
		newMonth += 12
		newYear--
	}
	firstOfMonth := time.Date(newYear, time.Month(newMonth+1), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(newYear, time.Month(newMonth+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Cadence is a tax filing frequency inferred from a return's period length.
type Cadence int

const (
	CadenceUnknown Cadence = iota
	CadenceMonthly
	CadenceQuarterly
	CadenceAnnual
)

// InferCadence infers a filing cadence from the number of days spanned by
// a filed return's period, per spec.md §4.4.19 step 2:
// 28–31 days → monthly, 89–92 days → quarterly, 365–366 days → annual.
// Any other span is ambiguous and returns CadenceUnknown — callers must
// emit NEEDS_REVIEW rather than guess (spec.md §9).
func InferCadence(periodStart, periodEnd time.Time) Cadence {
	days := int(periodEnd.Sub(periodStart).Hours()/24) + 1
	switch {
	case days >= 28 && days <= 31:
		return CadenceMonthly
	case days >= 89 && days <= 92:
		return CadenceQuarterly
	case days >= 365 && days <= 366:
		return CadenceAnnual
	default:
		return CadenceUnknown
	}
}

// cadenceStepMonths returns the number of months one cadence step spans.
func cadenceStepMonths(c Cadence) int {
	switch c {
	case CadenceMonthly:
		return 1
	case CadenceQuarterly:
		return 3
	case CadenceAnnual:
		return 12
	default:
		return 0
	}
}

// addMonthsAtMonthEnd adds n calendar months to t and snaps the result to
// the last day of the resulting month, rather than preserving t's original
// day-of-month. A filed tax return's period end is always itself the last
// day of its month, so the period end N months later is always the last
// day of that later month too (e.g. Jun 30 + 6 months = Dec 31, not Dec 30)
// — simple day-clamping arithmetic would under-clamp whenever the anchor's
// day (e.g. 30) is smaller than the target month's last day (31).
func addMonthsAtMonthEnd(t time.Time, n int) time.Time {
	year, month, _ := t.Date()
	totalMonths := int(month) - 1 + n
	newYear := year + totalMonths/12
	newMonth := totalMonths % 12
	if newMonth < 0 {
		newMonth += 12
		newYear--
	}
	firstOfMonth := time.Date(newYear, time.Month(newMonth+1), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return firstOfMonth.AddDate(0, 1, -1)
}

// RollForward advances a filed period's end date by one cadence step. This
// is a rolling cadence, never aligned to calendar quarters (spec.md §4.4.19:
// "a rolling cadence, never aligned to calendar quarters").
func RollForward(periodEnd time.Time, c Cadence) time.Time {
	return addMonthsAtMonthEnd(periodEnd, cadenceStepMonths(c))
}

// ExpectedPeriodEnd returns the most recent scheduled period end strictly
// before periodEnd, obtained by rolling latestFiledEnd forward one cadence
// step at a time (spec.md §4.4.19 step 3): a return covering the period
// ending on periodEnd itself isn't due yet, so it is never the expected
// filing. Each step is computed as an offset from the original
// latestFiledEnd rather than chained from the previous step's result, so a
// day-of-month clamp on one step (e.g. Mar 31 -> Jun 30) never compounds
// into the next step's calculation.
func ExpectedPeriodEnd(latestFiledEnd time.Time, periodEnd time.Time, c Cadence) time.Time {
	step := cadenceStepMonths(c)
	if step == 0 {
		return latestFiledEnd
	}
	months := 0
	for {
		next := addMonthsAtMonthEnd(latestFiledEnd, months+step)
		if !next.Before(periodEnd) {
			return addMonthsAtMonthEnd(latestFiledEnd, months)
		}
		months += step
	}
}
