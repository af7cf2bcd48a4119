package reserve_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/workflowservice"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

// FormRepository интерфейс репозитория форм
type FormRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Form, error)
}

// AppointmentRepository интерфейс репозитория записей на прием
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) error
	UpdateSlots(ctx context.Context, a *domain.Appointment) error
	FindByID(ctx context.Context, id int64) (*domain.Appointment, error)
	FindSlotsByUserEmail(ctx context.Context, email string, formID, excludeAppointmentID int64) ([]*domain.Slot, error)
	CreateResponse(ctx context.Context, resp *domain.AppointmentResponse) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	FindByID(ctx context.Context, slotID int64) (*domain.Slot, error)
	Update(ctx context.Context, s *domain.Slot) error
}

// SlotService интерфейс сервиса слотов: генерация и ленивое сохранение
// виртуальных слотов
type SlotService interface {
	BuildSlotList(ctx context.Context, formID int64, startDate, endDate time.Time) ([]*domain.Slot, error)
	CreateSlotIfAbsent(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
}

// LockManager интерфейс реестра блокировок слотов
type LockManager interface {
	SlotLock(slotID int64) *locks.Lock
}

// HoldRegistry интерфейс активных удержаний мест
type HoldRegistry interface {
	ActiveHold(sessionID string, slotID int64) *locks.Hold
	CancelHold(sessionID string, slotID int64)
}

// WorkflowClient интерфейс клиента WorkflowService
type WorkflowClient interface {
	GetState(ctx context.Context, resourceID int64, resourceType string, workflowID int64) (*workflowservice.State, error)
	ProcessActionWithGracefulDegradation(ctx context.Context, request workflowservice.ProcessActionRequest) error
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
