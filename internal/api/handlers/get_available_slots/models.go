package get_available_slots

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// SlotResponse слот календаря в HTTP ответе
type SlotResponse struct {
	SlotID                     int64  `json:"slotId,omitempty"`
	StartingDateTime           string `json:"startingDateTime"`
	EndingDateTime             string `json:"endingDateTime"`
	MaxCapacity                int    `json:"maxCapacity"`
	NbRemainingPlaces          int    `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int    `json:"nbPotentialRemainingPlaces"`
	NbPlacesTaken              int    `json:"nbPlacesTaken"`
	IsOpen                     bool   `json:"isOpen"`
	IsSpecific                 bool   `json:"isSpecific"`
}

// SlotListResponse HTTP response model
type SlotListResponse struct {
	FormID            int64          `json:"formId"`
	StartDate         string         `json:"startDate"`
	EndDate           string         `json:"endDate"`
	Slots             []SlotResponse `json:"slots"`
	NextAvailableDate string         `json:"nextAvailableDate,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *SlotListResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			SlotID:                     s.SlotID,
			StartingDateTime:           s.StartingDateTime.Format(domain.DateTimeFormat),
			EndingDateTime:             s.EndingDateTime.Format(domain.DateTimeFormat),
			MaxCapacity:                s.MaxCapacity,
			NbRemainingPlaces:          s.NbRemainingPlaces,
			NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
			NbPlacesTaken:              s.NbPlacesTaken,
			IsOpen:                     s.IsOpen,
			IsSpecific:                 s.IsSpecific,
		})
	}
	out := &SlotListResponse{
		FormID:    resp.FormID,
		StartDate: resp.StartDate.Format(domain.DateFormat),
		EndDate:   resp.EndDate.Format(domain.DateFormat),
		Slots:     slots,
	}
	if resp.NextAvailableDate != nil {
		out.NextAvailableDate = resp.NextAvailableDate.Format(domain.DateTimeFormat)
	}
	return out
}
