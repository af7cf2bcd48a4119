package reserve_appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest проверяет корректность входных данных запроса
func validateRequest(req *Request) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: form id must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(req.UserEmail) == "" {
		return fmt.Errorf("%w: user email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if req.NbBookedSeats <= 0 {
		return fmt.Errorf("%w: booked seats must be positive", ErrInvalidInput)
	}
	if req.NbBookedSeats > domain.MaxBookedSeats {
		return fmt.Errorf("%w: booked seats must not exceed %d", ErrInvalidInput, domain.MaxBookedSeats)
	}
	if len(req.Slots) == 0 {
		return fmt.Errorf("%w: at least one slot is required", ErrInvalidInput)
	}
	for _, sr := range req.Slots {
		if sr.SlotID == 0 && sr.StartingDateTime.IsZero() {
			return fmt.Errorf("%w: slot needs an id or a starting date time", ErrInvalidInput)
		}
	}
	return nil
}

// checkNbMaxAppointmentsOnPeriod проверяет лимит записей пользователя на
// скользящий период. userSlots - слоты активных записей пользователя на
// форме, appointmentDate - дата новой записи. Для каждого слота пользователя
// в пределах периода строится окно от его даты в сторону новой записи; если
// в окне набирается лимит, бронирование отклоняется.
func checkNbMaxAppointmentsOnPeriod(userSlots []*domain.Slot, appointmentDate time.Time, nbMax, nbDays int) bool {
	if nbMax <= 0 {
		return true
	}

	periodStart := appointmentDate.AddDate(0, 0, -nbDays)
	periodEnd := appointmentDate.AddDate(0, 0, nbDays)

	nearby := make([]time.Time, 0, len(userSlots))
	for _, s := range userSlots {
		d := s.Date()
		if d.Before(periodStart) || d.After(periodEnd) {
			continue
		}
		nearby = append(nearby, d)
	}

	for _, anchor := range nearby {
		var windowStart, windowEnd time.Time
		switch {
		case anchor.Before(appointmentDate):
			windowStart = anchor
			windowEnd = anchor.AddDate(0, 0, nbDays)
		case anchor.After(appointmentDate):
			windowStart = anchor.AddDate(0, 0, -nbDays)
			windowEnd = anchor
		default:
			windowStart = anchor
			windowEnd = anchor
		}

		nbAppointments := 0
		for _, d := range nearby {
			if !d.Before(windowStart) && !d.After(windowEnd) {
				nbAppointments++
			}
		}
		if nbAppointments >= nbMax {
			return false
		}
	}
	return true
}
