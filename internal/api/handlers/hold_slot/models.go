package hold_slot

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	holdSeats "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
)

// HoldRequest HTTP request model. Для виртуального слота передается форма и
// время начала вместо идентификатора в пути.
type HoldRequest struct {
	FormID           int64  `json:"formId"`
	StartingDateTime string `json:"startingDateTime,omitempty"` // "2025-10-15T10:00:00"
}

// HoldResponse HTTP response model
type HoldResponse struct {
	HoldID    string `json:"holdId"`
	SlotID    int64  `json:"slotId"`
	NbPlaces  int    `json:"nbPlaces"`
	ExpiresAt string `json:"expiresAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *HoldRequest) ToUseCaseRequest(slotID int64, sessionID string) (*holdSeats.Request, error) {
	var start time.Time
	if r.StartingDateTime != "" {
		parsed, err := time.Parse(domain.DateTimeFormat, r.StartingDateTime)
		if err != nil {
			return nil, err
		}
		start = parsed
	}
	return &holdSeats.Request{
		FormID:           r.FormID,
		SlotID:           slotID,
		StartingDateTime: start,
		SessionID:        sessionID,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *holdSeats.Response) *HoldResponse {
	return &HoldResponse{
		HoldID:    resp.HoldID,
		SlotID:    resp.SlotID,
		NbPlaces:  resp.NbPlaces,
		ExpiresAt: resp.ExpiresAt.Format(time.RFC3339),
	}
}
