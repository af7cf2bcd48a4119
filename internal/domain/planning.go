package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// WeekDefinition describes the layout of a typical week for a form, effective
// from DateOfApply. The definition with the closest DateOfApply in the past
// governs a given calendar date.
type WeekDefinition struct {
	ID          int64
	FormID      int64
	DateOfApply time.Time
	WorkingDays []WorkingDay
}

// WorkingDay is the template for one weekday's opening hours, broken down into
// time-slot templates. DayOfWeek follows ISO-8601 (1 = Monday .. 7 = Sunday).
type WorkingDay struct {
	ID               int64
	WeekDefinitionID int64
	DayOfWeek        int
	TimeSlots        []TimeSlot
}

// TimeSlot is a template for the slots generated inside a working day.
// MaxCapacity = 0 means the reservation rule's capacity applies.
type TimeSlot struct {
	ID           int64
	WorkingDayID int64
	StartingTime types.TimeString
	EndingTime   types.TimeString
	MaxCapacity  int
	IsOpen       bool
}

// ClosingDay marks a calendar date on which a form takes no appointments
type ClosingDay struct {
	ID     int64
	FormID int64
	Date   time.Time
}

// WorkingDayOfWeekDay returns the working day matching the given ISO weekday,
// or nil if the day is not worked
func (w *WeekDefinition) WorkingDayOfWeekDay(dayOfWeek int) *WorkingDay {
	for i := range w.WorkingDays {
		if w.WorkingDays[i].DayOfWeek == dayOfWeek {
			return &w.WorkingDays[i]
		}
	}
	return nil
}

// MinStartingTime returns the earliest starting time among the day's templates
func (d *WorkingDay) MinStartingTime() types.TimeString {
	var min types.TimeString
	for _, ts := range d.TimeSlots {
		if min.IsZero() || ts.StartingTime.IsBefore(min) {
			min = ts.StartingTime
		}
	}
	return min
}

// MaxEndingTime returns the latest ending time among the day's templates
func (d *WorkingDay) MaxEndingTime() types.TimeString {
	var max types.TimeString
	for _, ts := range d.TimeSlots {
		if ts.EndingTime.IsAfter(max) {
			max = ts.EndingTime
		}
	}
	return max
}

// MinSlotDuration returns the shortest template duration of the day, in minutes
func (d *WorkingDay) MinSlotDuration() int {
	min := 0
	for _, ts := range d.TimeSlots {
		dur, err := ts.StartingTime.MinutesUntil(ts.EndingTime)
		if err != nil {
			continue
		}
		if min == 0 || dur < min {
			min = dur
		}
	}
	return min
}

// TimeSlotStartingAt returns the template starting exactly at the given time
func (d *WorkingDay) TimeSlotStartingAt(t types.TimeString) *TimeSlot {
	for i := range d.TimeSlots {
		if d.TimeSlots[i].StartingTime.Equal(t) {
			return &d.TimeSlots[i]
		}
	}
	return nil
}

// NextTimeSlotAfter returns the earliest template starting at or after the
// given time, or nil if the day has none left
func (d *WorkingDay) NextTimeSlotAfter(t types.TimeString) *TimeSlot {
	var next *TimeSlot
	for i := range d.TimeSlots {
		ts := &d.TimeSlots[i]
		if ts.StartingTime.IsBefore(t) {
			continue
		}
		if next == nil || ts.StartingTime.IsBefore(next.StartingTime) {
			next = ts
		}
	}
	return next
}

// MinStartingTimeOfDays returns the earliest starting time across a list of working days
func MinStartingTimeOfDays(days []WorkingDay) types.TimeString {
	var min types.TimeString
	for i := range days {
		t := days[i].MinStartingTime()
		if t.IsZero() {
			continue
		}
		if min.IsZero() || t.IsBefore(min) {
			min = t
		}
	}
	return min
}

// MaxEndingTimeOfDays returns the latest ending time across a list of working days
func MaxEndingTimeOfDays(days []WorkingDay) types.TimeString {
	var max types.TimeString
	for i := range days {
		t := days[i].MaxEndingTime()
		if t.IsAfter(max) {
			max = t
		}
	}
	return max
}

// MinSlotDurationOfDays returns the shortest template duration across a list of
// working days, in minutes
func MinSlotDurationOfDays(days []WorkingDay) int {
	min := 0
	for i := range days {
		dur := days[i].MinSlotDuration()
		if dur == 0 {
			continue
		}
		if min == 0 || dur < min {
			min = dur
		}
	}
	return min
}
