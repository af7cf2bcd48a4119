package reactivate_appointment

import (
	"time"

	reactivateAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reactivate_appointment"
)

// ReactivateResponse HTTP response model
type ReactivateResponse struct {
	ID            int64  `json:"id"`
	Reference     string `json:"reference"`
	FormID        int64  `json:"formId"`
	IsCancelled   bool   `json:"isCancelled"`
	ReactivatedAt string `json:"reactivatedAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reactivateAppointment.Response) *ReactivateResponse {
	return &ReactivateResponse{
		ID:            resp.AppointmentID,
		Reference:     resp.Reference,
		FormID:        resp.FormID,
		IsCancelled:   resp.IsCancelled,
		ReactivatedAt: resp.ReactivatedAt.Format(time.RFC3339),
	}
}
