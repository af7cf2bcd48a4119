package update_schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
)

// FormRepository интерфейс репозитория форм
type FormRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Form, error)
}

// PlanningRepository интерфейс репозитория расписания
type PlanningRepository interface {
	FindTimeSlotByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
	FindWeekDefinitionByWorkingDay(ctx context.Context, workingDayID int64) (*domain.WeekDefinition, error)
	UpdateTimeSlot(ctx context.Context, ts *domain.TimeSlot) error
}

// AppointmentRepository интерфейс репозитория записей на прием
type AppointmentRepository interface {
	FindActiveBySlotIDs(ctx context.Context, slotIDs []int64) ([]*domain.Appointment, error)
}

// SlotService интерфейс сервиса слотов: поиск затронутых слотов и правка сетки
type SlotService interface {
	FindSlotsImpactedByTimeSlot(ctx context.Context, form *domain.Form, timeSlot *domain.TimeSlot, workingDay *domain.WorkingDay, weekDefinition *domain.WeekDefinition, shift bool) ([]*domain.Slot, error)
	UpdateSlot(ctx context.Context, slot *domain.Slot, previousEnd time.Time, shift bool) error
}

// LockManager интерфейс реестра блокировок слотов
type LockManager interface {
	SlotLock(slotID int64) *locks.Lock
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
