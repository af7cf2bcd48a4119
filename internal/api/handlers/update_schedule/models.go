package update_schedule

import (
	updateSchedule "github.com/m04kA/SMC-AppointmentService/internal/usecase/update_schedule"
)

// UpdateScheduleRequest HTTP request model
type UpdateScheduleRequest struct {
	TimeSlotID  int64  `json:"timeSlotId"`
	EndingTime  string `json:"endingTime"` // "HH:MM"
	MaxCapacity int    `json:"maxCapacity,omitempty"`
	IsOpen      bool   `json:"isOpen"`
	Shift       bool   `json:"shift,omitempty"`
}

// UpdateScheduleResponse HTTP response model
type UpdateScheduleResponse struct {
	TimeSlotID    int64 `json:"timeSlotId"`
	ImpactedSlots int   `json:"impactedSlots"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *UpdateScheduleRequest) ToUseCaseRequest(formID int64) *updateSchedule.Request {
	return &updateSchedule.Request{
		FormID:      formID,
		TimeSlotID:  r.TimeSlotID,
		EndingTime:  r.EndingTime,
		MaxCapacity: r.MaxCapacity,
		IsOpen:      r.IsOpen,
		Shift:       r.Shift,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *updateSchedule.Response) *UpdateScheduleResponse {
	return &UpdateScheduleResponse{
		TimeSlotID:    resp.TimeSlotID,
		ImpactedSlots: resp.ImpactedSlots,
	}
}
