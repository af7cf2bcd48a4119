package adjust_capacity

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("adjust_capacity: slot not found")

	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	ErrSlotLocked = errors.New("adjust_capacity: slot is locked by another reservation")

	// ErrNoPlanningDefined возвращается, когда у формы нет расписания
	ErrNoPlanningDefined = errors.New("adjust_capacity: no planning defined for form")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("adjust_capacity: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("adjust_capacity: internal error")
)
