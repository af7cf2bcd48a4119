package hold_seats

import (
	"fmt"
	"strings"
)

// validateRequest проверяет корректность входных данных запроса
func validateRequest(req *Request) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: form id must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if req.SlotID == 0 && req.StartingDateTime.IsZero() {
		return fmt.Errorf("%w: slot id or starting date time is required", ErrInvalidInput)
	}
	return nil
}
