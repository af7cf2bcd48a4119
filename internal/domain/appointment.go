package domain

import "time"

// Appointment represents a committed reservation on one or more slots
type Appointment struct {
	ID               int64
	FormID           int64
	Reference        string
	UserID           int64
	UserEmail        string
	NbBookedSeats    int
	IsCancelled      bool
	IsSurbooked      bool // set when an operator-approved overbooking exceeded the slot capacity
	DateTaken        time.Time
	IDActionReported int64 // workflow action to run when the appointment date was changed

	Slots []AppointmentSlot

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentSlot links an appointment to a slot with the seats taken on it
type AppointmentSlot struct {
	AppointmentID int64
	SlotID        int64
	NbPlaces      int
}

// IsActive returns true if the appointment still occupies its seats
func (a *Appointment) IsActive() bool {
	return !a.IsCancelled
}

// SlotIDs returns the ids of all slots referenced by the appointment
func (a *Appointment) SlotIDs() []int64 {
	ids := make([]int64, 0, len(a.Slots))
	for _, s := range a.Slots {
		ids = append(ids, s.SlotID)
	}
	return ids
}

// SeatsOnSlot returns the number of seats the appointment takes on the given slot
func (a *Appointment) SeatsOnSlot(slotID int64) int {
	for _, s := range a.Slots {
		if s.SlotID == slotID {
			return s.NbPlaces
		}
	}
	return 0
}

// AppointmentResponse stores a form-entry response attached to an appointment
type AppointmentResponse struct {
	ID            int64
	AppointmentID int64
	FieldCode     string
	Value         string
}
