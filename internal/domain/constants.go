package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes       = 30
	DefaultMaxCapacityPerSlot        = 1
	DefaultMaxPeoplePerAppointment   = 1
	DefaultHoldExpiryMinutes         = 1 // provisional hold lifetime while a user fills the form
	DefaultLockAcquireTimeoutSeconds = 3
	DefaultFreeSlotSearchHorizonDays = 60
	DefaultSavedSessionTTLMinutes    = 60
)

// Business validation constants
const (
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 480 // 8 hours
	MinCapacityPerSlot     = 1
	MaxCapacityPerSlot     = 100
	MaxBookedSeats         = 100
)

// Time format constants
const (
	TimeFormat     = "15:04"               // HH:MM
	DateFormat     = "2006-01-02"          // YYYY-MM-DD
	DateTimeFormat = "2006-01-02T15:04:05" // local date time, no offset
)

// Workflow resource type for appointments, used when triggering workflow state
// initialization and actions
const AppointmentResourceType = "APPOINTMENT_APPOINTMENT"
