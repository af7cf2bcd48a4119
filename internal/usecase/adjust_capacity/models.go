package adjust_capacity

import "time"

// Request модель запроса на правку вместимости одного слота
type Request struct {
	SlotID int64
	Delta  int
}

// Response модель ответа со счетчиками слота после правки
type Response struct {
	SlotID                     int64
	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	NbPlacesTaken              int
	IsSpecific                 bool
}

// RangeRequest модель запроса на правку вместимости слотов формы в
// диапазоне дат
type RangeRequest struct {
	FormID    int64
	StartDate time.Time
	EndDate   time.Time
	Delta     int
	Lace      bool // применять правку через один слот
}

// RangeResponse модель ответа на правку диапазона
type RangeResponse struct {
	FormID    int64
	StartDate time.Time
	EndDate   time.Time
	Delta     int
	Lace      bool
}
