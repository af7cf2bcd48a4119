package hold_seats

import "time"

// Request модель запроса на удержание мест
type Request struct {
	FormID           int64
	SlotID           int64     // 0 = виртуальный слот
	StartingDateTime time.Time // время начала для виртуального слота
	SessionID        string
}

// Response модель ответа с активным удержанием
type Response struct {
	HoldID    string
	SlotID    int64
	NbPlaces  int
	ExpiresAt time.Time
}

// ReleaseRequest модель запроса на снятие удержания
type ReleaseRequest struct {
	SlotID    int64
	SessionID string
}
