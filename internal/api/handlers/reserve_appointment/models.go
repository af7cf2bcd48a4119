package reserve_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reserveAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_appointment"
)

// SlotRequest слот в HTTP запросе: сохраненный по идентификатору либо
// виртуальный по времени начала
type SlotRequest struct {
	SlotID           int64  `json:"slotId,omitempty"`
	StartingDateTime string `json:"startingDateTime,omitempty"` // "2025-10-15T10:00:00"
}

// ResponseItem ответ пользователя на поле формы
type ResponseItem struct {
	FieldCode string `json:"fieldCode"`
	Value     string `json:"value"`
}

// ReserveAppointmentRequest HTTP request model
type ReserveAppointmentRequest struct {
	FormID        int64          `json:"formId"`
	AppointmentID int64          `json:"appointmentId,omitempty"` // перенос существующей записи
	UserEmail     string         `json:"userEmail"`
	NbBookedSeats int            `json:"nbBookedSeats"`
	Slots         []SlotRequest  `json:"slots"`
	Responses     []ResponseItem `json:"responses,omitempty"`
}

// ReservedSlotResponse слот в составе подтвержденной записи
type ReservedSlotResponse struct {
	SlotID            int64  `json:"slotId"`
	StartingDateTime  string `json:"startingDateTime"`
	EndingDateTime    string `json:"endingDateTime"`
	NbPlaces          int    `json:"nbPlaces"`
	NbRemainingPlaces int    `json:"nbRemainingPlaces"`
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	ID            int64                  `json:"id"`
	Reference     string                 `json:"reference"`
	FormID        int64                  `json:"formId"`
	UserID        int64                  `json:"userId"`
	UserEmail     string                 `json:"userEmail"`
	NbBookedSeats int                    `json:"nbBookedSeats"`
	IsSurbooked   bool                   `json:"isSurbooked"`
	DateTaken     string                 `json:"dateTaken"`
	Slots         []ReservedSlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReserveAppointmentRequest) ToUseCaseRequest(userID int64, sessionID string) (*reserveAppointment.Request, error) {
	slots := make([]reserveAppointment.SlotRequest, 0, len(r.Slots))
	for _, sr := range r.Slots {
		var start time.Time
		if sr.StartingDateTime != "" {
			parsed, err := time.Parse(domain.DateTimeFormat, sr.StartingDateTime)
			if err != nil {
				return nil, err
			}
			start = parsed
		}
		slots = append(slots, reserveAppointment.SlotRequest{
			SlotID:           sr.SlotID,
			StartingDateTime: start,
		})
	}

	responses := make([]reserveAppointment.ResponseItem, 0, len(r.Responses))
	for _, item := range r.Responses {
		responses = append(responses, reserveAppointment.ResponseItem{
			FieldCode: item.FieldCode,
			Value:     item.Value,
		})
	}

	return &reserveAppointment.Request{
		FormID:        r.FormID,
		AppointmentID: r.AppointmentID,
		SessionID:     sessionID,
		UserID:        userID,
		UserEmail:     r.UserEmail,
		NbBookedSeats: r.NbBookedSeats,
		Slots:         slots,
		Responses:     responses,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reserveAppointment.Response) *AppointmentResponse {
	slots := make([]ReservedSlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, ReservedSlotResponse{
			SlotID:            s.SlotID,
			StartingDateTime:  s.StartingDateTime.Format(domain.DateTimeFormat),
			EndingDateTime:    s.EndingDateTime.Format(domain.DateTimeFormat),
			NbPlaces:          s.NbPlaces,
			NbRemainingPlaces: s.NbRemainingPlaces,
		})
	}
	return &AppointmentResponse{
		ID:            resp.AppointmentID,
		Reference:     resp.Reference,
		FormID:        resp.FormID,
		UserID:        resp.UserID,
		UserEmail:     resp.UserEmail,
		NbBookedSeats: resp.NbBookedSeats,
		IsSurbooked:   resp.IsSurbooked,
		DateTaken:     resp.DateTaken.Format(time.RFC3339),
		Slots:         slots,
	}
}
