package domain

import (
	"sort"
	"time"
)

// ReservationRule is the capacity and duration policy of a form, effective from
// DateOfApply. Like week definitions, the rule with the closest DateOfApply in
// the past governs a given calendar date.
type ReservationRule struct {
	ID                      int64
	FormID                  int64
	DateOfApply             time.Time
	MaxCapacityPerSlot      int
	MaxPeoplePerAppointment int
	DurationMinutes         int
}

// Form carries the appointment form's settings relevant to reservations
type Form struct {
	ID                              int64
	Title                           string
	IDWorkflow                      int64
	IsOverbookingAllowed            bool
	NbMaxAppointmentsPerUser        int // 0 = unlimited
	NbDaysForMaxAppointmentsPerUser int
	EndingValidityDate              *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasWorkflow returns true if a workflow is attached to the form
func (f *Form) HasWorkflow() bool {
	return f.IDWorkflow > 0
}

// HasAppointmentsPerUserLimit returns true if the per-user frequency limit applies
func (f *Form) HasAppointmentsPerUserLimit() bool {
	return f.NbMaxAppointmentsPerUser > 0
}

// ClosestDateInPast returns the latest date in dates that is not after target,
// or the zero time if none qualifies. Used to resolve the governing week
// definition and reservation rule for a calendar date.
func ClosestDateInPast(dates []time.Time, target time.Time) time.Time {
	var closest time.Time
	for _, d := range dates {
		if d.After(target) {
			continue
		}
		if closest.IsZero() || d.After(closest) {
			closest = d
		}
	}
	return closest
}

// ClosestDateTimeInFuture returns the earliest date time in candidates that is
// not before target, or the zero time if none qualifies
func ClosestDateTimeInFuture(candidates []time.Time, target time.Time) time.Time {
	var closest time.Time
	for _, c := range candidates {
		if c.Before(target) {
			continue
		}
		if closest.IsZero() || c.Before(closest) {
			closest = c
		}
	}
	return closest
}

// FirstDateOfApply returns the earliest DateOfApply among the rules, or the
// zero time for an empty list. Slot generation never starts before this date.
func FirstDateOfApply(rules []ReservationRule) time.Time {
	if len(rules) == 0 {
		return time.Time{}
	}
	dates := make([]time.Time, 0, len(rules))
	for _, r := range rules {
		dates = append(dates, r.DateOfApply)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates[0]
}
