package common

import "time"

// Day-granularity date math. All calendar comparisons in the SIP scheduler,
// tax center and alert evaluator operate on "day keys": timestamps truncated
// to midnight in the reference timezone. This keeps due-date and FY-window
// decisions stable regardless of the server's ambient TZ.

// DayKey truncates t to midnight in loc.
func DayKey(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayKey(a, loc).Equal(DayKey(b, loc))
}

// SameMonth reports whether a and b fall in the same calendar month in loc.
func SameMonth(a, b time.Time, loc *time.Location) bool {
	la, lb := a.In(loc), b.In(loc)
	return la.Year() == lb.Year() && la.Month() == lb.Month()
}

// DaysBetween returns the number of whole days from a to b (b − a),
// comparing day keys. Negative when b precedes a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da, db := DayKey(a, loc), DayKey(b, loc)
	return int(db.Sub(da).Hours() / 24)
}

// DaysInMonth returns the number of days in t's calendar month in loc.
func DaysInMonth(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	firstOfNext := time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// MonthsBetween returns the number of calendar months from a to b in loc.
// Day-of-month is ignored: Jan 31 → Feb 1 is one month.
func MonthsBetween(a, b time.Time, loc *time.Location) int {
	la, lb := a.In(loc), b.In(loc)
	return (lb.Year()-la.Year())*12 + int(lb.Month()) - int(la.Month())
}
