package update_schedule

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("update_schedule: form not found")

	// ErrTimeSlotNotFound возвращается, когда шаблон интервала не найден
	ErrTimeSlotNotFound = errors.New("update_schedule: time slot not found")

	// ErrScheduleConflict возвращается, когда правка сетки задевает слоты с
	// активными записями. Проверка выполняется до любых изменений: сетка
	// остается нетронутой.
	ErrScheduleConflict = errors.New("update_schedule: impacted slots have active appointments")

	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	ErrSlotLocked = errors.New("update_schedule: slot is locked by another reservation")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("update_schedule: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("update_schedule: internal error")
)
