package hold_seats

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	FindByID(ctx context.Context, slotID int64) (*domain.Slot, error)
}

// SlotService интерфейс сервиса слотов: нужен для ленивого сохранения
// виртуального слота перед удержанием
type SlotService interface {
	BuildSlotList(ctx context.Context, formID int64, startDate, endDate time.Time) ([]*domain.Slot, error)
	CreateSlotIfAbsent(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
}

// RuleRepository интерфейс репозитория правил бронирования
type RuleRepository interface {
	FindByForm(ctx context.Context, formID int64) ([]domain.ReservationRule, error)
}

// HoldRegistry интерфейс сервиса удержаний
type HoldRegistry interface {
	HoldSeats(ctx context.Context, sessionID string, slotID int64, maxPeoplePerAppointment int) (*locks.Hold, error)
	ReleaseHold(ctx context.Context, sessionID string, slotID int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
