package reserve_appointment

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("reserve_appointment: form not found")

	// ErrSlotNotFound возвращается, когда целевой слот не найден
	ErrSlotNotFound = errors.New("reserve_appointment: slot not found")

	// ErrSlotLocked возвращается, когда блокировку слота не удалось получить
	// за отведенное время
	ErrSlotLocked = errors.New("reserve_appointment: slot is locked by another reservation")

	// ErrSlotFull возвращается, когда на слоте не хватает мест и
	// сверхбронирование не разрешено
	ErrSlotFull = errors.New("reserve_appointment: slot is full")

	// ErrSlotNotOpen возвращается при попытке записи на закрытый слот
	ErrSlotNotOpen = errors.New("reserve_appointment: slot is not open")

	// ErrSlotEnded возвращается при попытке записи на прошедший слот
	ErrSlotEnded = errors.New("reserve_appointment: slot has already ended")

	// ErrAlreadySaved возвращается при повторной отправке уже сохраненной
	// записи той же сессией
	ErrAlreadySaved = errors.New("reserve_appointment: appointment already saved")

	// ErrMaxAppointmentsReached возвращается, когда у пользователя уже
	// максимум записей на заданный период
	ErrMaxAppointmentsReached = errors.New("reserve_appointment: max appointments on period reached")

	// ErrAppointmentNotFound возвращается, когда переносимая запись не найдена
	ErrAppointmentNotFound = errors.New("reserve_appointment: appointment not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reserve_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reserve_appointment: internal error")
)
