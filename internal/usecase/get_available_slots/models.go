package get_available_slots

import "time"

// Request модель запроса на получение слотов формы
type Request struct {
	FormID        int64
	StartDate     time.Time
	EndDate       time.Time
	OnlyAvailable bool // вернуть только открытые слоты со свободными местами
}

// Slot слот календаря в ответе
type Slot struct {
	SlotID                     int64 // 0 = виртуальный, еще не сохраненный слот
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	NbPlacesTaken              int
	IsOpen                     bool
	IsSpecific                 bool
}

// Response модель ответа со слотами формы
type Response struct {
	FormID    int64
	StartDate time.Time
	EndDate   time.Time
	Slots     []Slot

	// Начало ближайшего свободного слота за пределами запрошенного
	// диапазона. Заполняется, когда фильтр доступности не оставил ни
	// одного слота.
	NextAvailableDate *time.Time
}
