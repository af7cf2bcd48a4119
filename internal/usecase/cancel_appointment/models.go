package cancel_appointment

import "time"

// Request модель запроса на отмену записи
type Request struct {
	AppointmentID int64
	UserID        int64 // 0 = отмена оператором, без проверки владельца
}

// Response модель ответа с отмененной записью
type Response struct {
	AppointmentID int64
	Reference     string
	FormID        int64
	IsCancelled   bool
	CancelledAt   time.Time
}
