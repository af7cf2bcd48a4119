package slots

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slots: slot not found")

	// ErrSlotFull возвращается, когда на слоте не хватает мест и
	// сверхбронирование не разрешено
	ErrSlotFull = errors.New("slots: slot is full")

	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	ErrSlotLocked = errors.New("slots: slot is locked by another reservation")

	// ErrNoPlanningDefined возвращается, когда у формы нет ни одного
	// определения недели или правила бронирования
	ErrNoPlanningDefined = errors.New("slots: form has no planning defined")

	// ErrInvalidDateRange возвращается при некорректном диапазоне дат
	ErrInvalidDateRange = errors.New("slots: invalid date range")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slots: internal error")
)
