package cancel_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("cancel_appointment: appointment not found")

	// ErrAlreadyCancelled возвращается при повторной отмене записи
	ErrAlreadyCancelled = errors.New("cancel_appointment: appointment is already cancelled")

	// ErrAccessDenied возвращается, когда запись принадлежит другому
	// пользователю
	ErrAccessDenied = errors.New("cancel_appointment: access denied")

	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	ErrSlotLocked = errors.New("cancel_appointment: slot is locked by another reservation")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancel_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_appointment: internal error")
)
