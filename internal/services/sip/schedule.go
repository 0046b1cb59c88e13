// Package sip manages systematic investment plans: recurring fixed-amount
// purchases advanced by a due-date scheduler.
package sip

import (
	"time"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/models"
)

// IsDue reports whether plan has an installment due on now's calendar day.
// All comparisons are day-granularity in loc.
//
// Weekly plans are due when there is no prior debit or at least 7 days have
// elapsed since the last one. Monthly and quarterly plans are due from the
// anchor day onward, clamped to the month's length (anchor 31 fires on
// Feb 28/29), at most once per calendar month; quarterly additionally
// requires the month count since the start date to be a multiple of 3.
func IsDue(plan *models.SIP, now time.Time, loc *time.Location) bool {
	if common.DaysBetween(plan.StartDate, now, loc) < 0 {
		return false
	}
	if plan.EndDate != nil && common.DaysBetween(*plan.EndDate, now, loc) > 0 {
		return false
	}

	switch plan.Frequency {
	case models.FreqWeekly:
		if plan.LastDebitDate == nil {
			return true
		}
		return common.DaysBetween(*plan.LastDebitDate, now, loc) >= 7

	case models.FreqMonthly, models.FreqQuarterly:
		dueDay := plan.AnchorDay
		if dim := common.DaysInMonth(now, loc); dueDay > dim {
			dueDay = dim
		}
		if now.In(loc).Day() < dueDay {
			return false
		}
		if plan.Frequency == models.FreqQuarterly &&
			common.MonthsBetween(plan.StartDate, now, loc)%3 != 0 {
			return false
		}
		if plan.LastDebitDate != nil && common.SameMonth(*plan.LastDebitDate, now, loc) {
			return false
		}
		return true
	}
	return false
}
