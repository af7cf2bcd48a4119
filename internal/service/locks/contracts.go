package locks

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов, нужный сервису удержаний
type SlotRepository interface {
	FindByID(ctx context.Context, slotID int64) (*domain.Slot, error)
	UpdatePotentialRemainingPlaces(ctx context.Context, slotID int64, nbPotentialRemainingPlaces int) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
