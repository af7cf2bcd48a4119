package adjust_capacity

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotService интерфейс сервиса слотов
type SlotService interface {
	IncrementMaxCapacity(ctx context.Context, slotID int64, delta int) (*domain.Slot, error)
	IncrementMaxCapacityRange(ctx context.Context, formID int64, startDate, endDate time.Time, delta int, lace bool) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
