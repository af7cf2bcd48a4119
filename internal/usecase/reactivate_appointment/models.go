package reactivate_appointment

import "time"

// Request модель запроса на возврат отмененной записи
type Request struct {
	AppointmentID int64
	UserID        int64 // 0 = возврат оператором, без проверки владельца
}

// Response модель ответа с возвращенной записью
type Response struct {
	AppointmentID int64
	Reference     string
	FormID        int64
	IsCancelled   bool
	ReactivatedAt time.Time
}
