package get_available_slots

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("get_available_slots: form not found")

	// ErrNoPlanningDefined возвращается, когда у формы нет расписания
	ErrNoPlanningDefined = errors.New("get_available_slots: form has no planning defined")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
