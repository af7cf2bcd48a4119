package domain

import "time"

// Slot represents a bookable time interval on a form's calendar with its own
// capacity counters. A slot with ID = 0 is a virtual slot computed on the fly
// from the planning rules; it is persisted only when first touched by a hold,
// a capacity edit or a reservation.
type Slot struct {
	ID                         int64
	FormID                     int64
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	NbPlacesTaken              int
	IsOpen                     bool
	IsSpecific                 bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsVirtual returns true if the slot has not been persisted yet
func (s *Slot) IsVirtual() bool {
	return s.ID == 0
}

// Date returns the calendar date of the slot
func (s *Slot) Date() time.Time {
	y, m, d := s.StartingDateTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.StartingDateTime.Location())
}

// HasEnded returns true if the slot's ending date time is in the past
func (s *Slot) HasEnded(now time.Time) bool {
	return s.EndingDateTime.Before(now)
}

// IsFull returns true if the slot has no remaining places
func (s *Slot) IsFull() bool {
	return s.NbRemainingPlaces <= 0
}

// IsOverbooked returns true if more places are taken than the slot's capacity
// This can happen after an operator-approved overbooking or a capacity decrease
func (s *Slot) IsOverbooked() bool {
	return s.NbPlacesTaken > s.MaxCapacity
}

// Snapshot returns a by-value copy of the slot, captured before a mutation
// so the pre-edit state stays available for events and audit
func (s *Slot) Snapshot() Slot {
	return *s
}
