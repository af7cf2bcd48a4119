package reactivate_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("reactivate_appointment: appointment not found")

	// ErrNotCancelled возвращается при попытке вернуть действующую запись
	ErrNotCancelled = errors.New("reactivate_appointment: appointment is not cancelled")

	// ErrSlotEnded возвращается, когда слоты записи уже прошли
	ErrSlotEnded = errors.New("reactivate_appointment: slot has already ended")

	// ErrAccessDenied возвращается, когда запись принадлежит другому
	// пользователю
	ErrAccessDenied = errors.New("reactivate_appointment: access denied")

	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	ErrSlotLocked = errors.New("reactivate_appointment: slot is locked by another reservation")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reactivate_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reactivate_appointment: internal error")
)
