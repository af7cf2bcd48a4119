package update_schedule

// Request модель запроса на правку шаблона временного интервала
type Request struct {
	FormID      int64
	TimeSlotID  int64
	EndingTime  string // "HH:MM"
	MaxCapacity int    // 0 = вместимость по правилу бронирования
	IsOpen      bool
	Shift       bool // сдвигать последующие слоты вместо заполнения разрыва
}

// Response модель ответа с результатом правки
type Response struct {
	TimeSlotID       int64
	ImpactedSlots    int // сохраненные слоты, к которым применена правка
	AppointmentsSeen int // активные записи на затронутых слотах (0 при успехе)
}
