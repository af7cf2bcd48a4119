package cancel_appointment

import (
	"time"

	cancelAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
)

// CancelResponse HTTP response model
type CancelResponse struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	FormID      int64  `json:"formId"`
	IsCancelled bool   `json:"isCancelled"`
	CancelledAt string `json:"cancelledAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelAppointment.Response) *CancelResponse {
	return &CancelResponse{
		ID:          resp.AppointmentID,
		Reference:   resp.Reference,
		FormID:      resp.FormID,
		IsCancelled: resp.IsCancelled,
		CancelledAt: resp.CancelledAt.Format(time.RFC3339),
	}
}
