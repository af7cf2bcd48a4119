package locks

import "errors"

var (
	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	// за отведенное время
	ErrSlotLocked = errors.New("locks: slot is locked by another reservation")

	// ErrNoPlacesAvailable возвращается, когда на слоте нет потенциально
	// свободных мест для удержания
	ErrNoPlacesAvailable = errors.New("locks: no potential places available on slot")

	// ErrHoldNotFound возвращается, когда удержание не найдено
	ErrHoldNotFound = errors.New("locks: hold not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("locks: internal error")
)
