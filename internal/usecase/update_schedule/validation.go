package update_schedule

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// validateRequest проверяет корректность входных данных запроса
func validateRequest(req *Request) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: form id must be positive", ErrInvalidInput)
	}
	if req.TimeSlotID <= 0 {
		return fmt.Errorf("%w: time slot id must be positive", ErrInvalidInput)
	}
	if req.EndingTime != "" {
		if _, err := types.NewTimeStringFromString(req.EndingTime); err != nil {
			return fmt.Errorf("%w: invalid ending time: %v", ErrInvalidInput, err)
		}
	}
	if req.MaxCapacity < 0 || req.MaxCapacity > domain.MaxCapacityPerSlot {
		return fmt.Errorf("%w: max capacity must be between 0 and %d", ErrInvalidInput, domain.MaxCapacityPerSlot)
	}
	return nil
}
