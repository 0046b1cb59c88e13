package sip

import (
	"testing"
	"time"

	"github.com/sanjaydutta/fintra/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyPlan(anchor int, start time.Time) *models.SIP {
	return &models.SIP{
		Frequency: models.FreqMonthly,
		AnchorDay: anchor,
		StartDate: start,
		Status:    models.SIPActive,
	}
}

func TestIsDueMonthly(t *testing.T) {
	start := day(2025, time.January, 1)

	tests := []struct {
		name      string
		anchor    int
		lastDebit *time.Time
		now       time.Time
		want      bool
	}{
		{"before anchor day", 5, nil, day(2025, time.January, 4), false},
		{"on anchor day", 5, nil, day(2025, time.January, 5), true},
		{"after anchor day", 5, nil, day(2025, time.January, 20), true},
		{"already debited this month", 5, ptr(day(2025, time.January, 6)), day(2025, time.January, 20), false},
		{"debited last month", 5, ptr(day(2025, time.January, 6)), day(2025, time.February, 10), true},
		{"before start date", 5, nil, day(2024, time.December, 20), false},
		{"anchor 31 clamps to feb 28", 31, nil, day(2025, time.February, 28), true},
		{"anchor 31 not due feb 27", 31, nil, day(2025, time.February, 27), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := monthlyPlan(tt.anchor, start)
			plan.LastDebitDate = tt.lastDebit
			if got := IsDue(plan, tt.now, time.UTC); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDueWeekly(t *testing.T) {
	plan := &models.SIP{
		Frequency: models.FreqWeekly,
		StartDate: day(2025, time.January, 1),
		Status:    models.SIPActive,
	}

	if !IsDue(plan, day(2025, time.January, 2), time.UTC) {
		t.Error("weekly with no prior debit should be due")
	}

	plan.LastDebitDate = ptr(day(2025, time.January, 2))
	if IsDue(plan, day(2025, time.January, 8), time.UTC) {
		t.Error("6 days since last debit: not due")
	}
	if !IsDue(plan, day(2025, time.January, 9), time.UTC) {
		t.Error("7 days since last debit: due")
	}
}

func TestIsDueQuarterlyGating(t *testing.T) {
	plan := &models.SIP{
		Frequency: models.FreqQuarterly,
		AnchorDay: 1,
		StartDate: day(2025, time.January, 1),
		Status:    models.SIPActive,
	}

	dueMonths := map[time.Month]bool{time.January: true, time.April: true, time.July: true, time.October: true}
	for m := time.January; m <= time.December; m++ {
		got := IsDue(plan, day(2025, m, 1), time.UTC)
		if got != dueMonths[m] {
			t.Errorf("month %s: IsDue = %v, want %v", m, got, dueMonths[m])
		}
		// a debit in a due month blocks the rest of that month
		if got {
			debited := *plan
			debited.LastDebitDate = ptr(day(2025, m, 1))
			if IsDue(&debited, day(2025, m, 15), time.UTC) {
				t.Errorf("month %s: due again after debit in same month", m)
			}
		}
	}
}

func TestIsDueEndDatePassed(t *testing.T) {
	plan := monthlyPlan(1, day(2025, time.January, 1))
	plan.EndDate = ptr(day(2025, time.March, 31))

	if !IsDue(plan, day(2025, time.March, 1), time.UTC) {
		t.Error("should be due before end date")
	}
	if IsDue(plan, day(2025, time.April, 1), time.UTC) {
		t.Error("should not be due after end date")
	}
}

func ptr(t time.Time) *time.Time { return &t }
