package adjust_capacity

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	adjustCapacity "github.com/m04kA/SMC-AppointmentService/internal/usecase/adjust_capacity"
)

// AdjustRequest HTTP request model правки вместимости одного слота
type AdjustRequest struct {
	Delta int `json:"delta"`
}

// AdjustResponse HTTP response model
type AdjustResponse struct {
	SlotID                     int64 `json:"slotId"`
	MaxCapacity                int   `json:"maxCapacity"`
	NbRemainingPlaces          int   `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int   `json:"nbPotentialRemainingPlaces"`
	NbPlacesTaken              int   `json:"nbPlacesTaken"`
	IsSpecific                 bool  `json:"isSpecific"`
}

// AdjustRangeRequest HTTP request model правки вместимости диапазона
type AdjustRangeRequest struct {
	StartDate string `json:"startDate"` // "2025-10-13"
	EndDate   string `json:"endDate"`
	Delta     int    `json:"delta"`
	Lace      bool   `json:"lace,omitempty"`
}

// AdjustRangeResponse HTTP response model
type AdjustRangeResponse struct {
	FormID    int64  `json:"formId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Delta     int    `json:"delta"`
	Lace      bool   `json:"lace"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *AdjustRangeRequest) ToUseCaseRequest(formID int64) (*adjustCapacity.RangeRequest, error) {
	start, err := time.Parse(domain.DateFormat, r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(domain.DateFormat, r.EndDate)
	if err != nil {
		return nil, err
	}
	return &adjustCapacity.RangeRequest{
		FormID:    formID,
		StartDate: start,
		EndDate:   end,
		Delta:     r.Delta,
		Lace:      r.Lace,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *adjustCapacity.Response) *AdjustResponse {
	return &AdjustResponse{
		SlotID:                     resp.SlotID,
		MaxCapacity:                resp.MaxCapacity,
		NbRemainingPlaces:          resp.NbRemainingPlaces,
		NbPotentialRemainingPlaces: resp.NbPotentialRemainingPlaces,
		NbPlacesTaken:              resp.NbPlacesTaken,
		IsSpecific:                 resp.IsSpecific,
	}
}

// FromUseCaseRangeResponse конвертирует ответ use case в HTTP response
func FromUseCaseRangeResponse(resp *adjustCapacity.RangeResponse) *AdjustRangeResponse {
	return &AdjustRangeResponse{
		FormID:    resp.FormID,
		StartDate: resp.StartDate.Format(domain.DateFormat),
		EndDate:   resp.EndDate.Format(domain.DateFormat),
		Delta:     resp.Delta,
		Lace:      resp.Lace,
	}
}
