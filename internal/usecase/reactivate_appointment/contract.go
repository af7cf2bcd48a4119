package reactivate_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

// AppointmentRepository интерфейс репозитория записей на прием
type AppointmentRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	FindByID(ctx context.Context, slotID int64) (*domain.Slot, error)
	Update(ctx context.Context, s *domain.Slot) error
}

// LockManager интерфейс реестра блокировок слотов
type LockManager interface {
	SlotLock(slotID int64) *locks.Lock
}

// EventPublisher интерфейс диспетчера событий календаря
type EventPublisher interface {
	Publish(event notify.Event)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
