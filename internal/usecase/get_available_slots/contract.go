package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// FormRepository интерфейс репозитория форм
type FormRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Form, error)
}

// SlotService интерфейс сервиса слотов
type SlotService interface {
	BuildSlotList(ctx context.Context, formID int64, startDate, endDate time.Time) ([]*domain.Slot, error)
	FindFirstFreeOpenSlotDate(ctx context.Context, formID int64, from time.Time, horizonDays int) (time.Time, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
