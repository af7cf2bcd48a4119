package slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error)
	Update(ctx context.Context, s *domain.Slot) error
	UpdatePotentialRemainingPlaces(ctx context.Context, slotID int64, nbPotentialRemainingPlaces int) error
	Delete(ctx context.Context, slotID int64) error
	FindByID(ctx context.Context, slotID int64) (*domain.Slot, error)
	FindByFormAndDateRange(ctx context.Context, formID int64, start, end time.Time) ([]*domain.Slot, error)
	FindSlotWithMaxDate(ctx context.Context, formID int64) (*domain.Slot, error)
}

// PlanningRepository интерфейс репозитория расписания
type PlanningRepository interface {
	FindWeekDefinitionsByForm(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error)
	FindClosingDates(ctx context.Context, formID int64, startDate, endDate time.Time) ([]time.Time, error)
}

// RuleRepository интерфейс репозитория правил бронирования
type RuleRepository interface {
	FindByForm(ctx context.Context, formID int64) ([]domain.ReservationRule, error)
}

// EventPublisher интерфейс диспетчера событий календаря
type EventPublisher interface {
	Publish(event notify.Event)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
