package reserve_appointment

import "time"

// SlotRequest целевой слот бронирования. Виртуальный слот (SlotID = 0)
// идентифицируется временем начала и сохраняется при бронировании.
type SlotRequest struct {
	SlotID           int64
	StartingDateTime time.Time
}

// ResponseItem ответ пользователя на поле формы
type ResponseItem struct {
	FieldCode string
	Value     string
}

// Request модель запроса на бронирование записи
type Request struct {
	FormID        int64
	AppointmentID int64  // 0 = новая запись, иначе перенос существующей
	SessionID     string // сессия пользователя, держатель удержаний
	UserID        int64
	UserEmail     string
	NbBookedSeats int
	Slots         []SlotRequest
	Responses     []ResponseItem
}

// ReservedSlot слот в составе подтвержденной записи
type ReservedSlot struct {
	SlotID            int64
	StartingDateTime  time.Time
	EndingDateTime    time.Time
	NbPlaces          int
	NbRemainingPlaces int
}

// Response модель ответа с подтвержденной записью
type Response struct {
	AppointmentID int64
	Reference     string
	FormID        int64
	UserID        int64
	UserEmail     string
	NbBookedSeats int
	IsSurbooked   bool
	DateTaken     time.Time
	Slots         []ReservedSlot
}
