package hold_seats

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("hold_seats: form not found")

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("hold_seats: slot not found")

	// ErrSlotNotOpen возвращается при попытке удержания на закрытом слоте
	ErrSlotNotOpen = errors.New("hold_seats: slot is not open")

	// ErrNoPlacesAvailable возвращается, когда на слоте нет потенциально
	// свободных мест
	ErrNoPlacesAvailable = errors.New("hold_seats: no places available on slot")

	// ErrHoldNotFound возвращается, когда удержание не найдено
	ErrHoldNotFound = errors.New("hold_seats: hold not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("hold_seats: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("hold_seats: internal error")
)
