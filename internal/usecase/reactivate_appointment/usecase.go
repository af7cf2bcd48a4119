package reactivate_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
	slotService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
)

// UseCase use case возврата отмененной записи с повторным занятием мест
type UseCase struct {
	appointments AppointmentRepository
	slots        SlotRepository
	locks        LockManager
	events       EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
	lockTimeout  time.Duration
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointments AppointmentRepository,
	slots SlotRepository,
	lockManager LockManager,
	events EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointments: appointments,
		slots:        slots,
		locks:        lockManager,
		events:       events,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		lockTimeout:  domain.DefaultLockAcquireTimeoutSeconds * time.Second,
	}
}

// Execute возвращает отмененную запись. Места занимаются заново в каждом
// слоте записи под его блокировкой, без ограничения сверху: считается, что
// места были корректно заняты до отмены.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReactivateAppointment: appointment=%d, user=%d", req.AppointmentID, req.UserID)

	// 1. Валидация входных данных
	if req.AppointmentID <= 0 {
		return nil, fmt.Errorf("%w: appointment id must be positive", ErrInvalidInput)
	}

	// 2. Получаем запись
	appointment, err := uc.appointments.FindByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("ReactivateAppointment: appointment id=%d not found", req.AppointmentID)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("ReactivateAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	// 3. Проверяем владельца и статус
	if req.UserID != 0 && appointment.UserID != req.UserID {
		uc.logger.Warn("ReactivateAppointment: user=%d is not the owner of appointment=%d", req.UserID, req.AppointmentID)
		return nil, ErrAccessDenied
	}
	if !appointment.IsCancelled {
		return nil, ErrNotCancelled
	}

	// 4. Берем блокировки всех слотов записи
	acquired := make([]*locks.Lock, 0, len(appointment.Slots))
	defer func() {
		for _, lock := range acquired {
			lock.Release()
		}
	}()
	for _, as := range appointment.Slots {
		lock := uc.locks.SlotLock(as.SlotID)
		if !lock.AcquireTimeout(uc.lockTimeout) {
			uc.logger.Warn("ReactivateAppointment: slot=%d is locked, aborting", as.SlotID)
			return nil, ErrSlotLocked
		}
		acquired = append(acquired, lock)
	}

	// 5. Занимаем места заново и возвращаем запись в одной транзакции.
	// Прошедшие слоты вернуть нельзя.
	now := uc.timeProvider.Now()
	touched := make([]*domain.Slot, 0, len(appointment.Slots))
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		for _, as := range appointment.Slots {
			slot, err := uc.slots.FindByID(txCtx, as.SlotID)
			if err != nil {
				return fmt.Errorf("%w: failed to get slot %d: %v", ErrInternal, as.SlotID, err)
			}
			if !slot.EndingDateTime.After(now) {
				return ErrSlotEnded
			}
			slotService.ApplyReactivate(slot, as.NbPlaces)
			if err := uc.slots.Update(txCtx, slot); err != nil {
				return fmt.Errorf("%w: failed to update slot %d: %v", ErrInternal, slot.ID, err)
			}
			touched = append(touched, slot)
		}

		appointment.IsCancelled = false
		if err := uc.appointments.Update(txCtx, appointment); err != nil {
			return fmt.Errorf("%w: failed to update appointment: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 6. Уведомления после фиксации
	for _, slot := range touched {
		uc.events.Publish(notify.Event{Type: notify.EventSlotChanged, FormID: slot.FormID, SlotID: slot.ID})
	}
	uc.events.Publish(notify.Event{Type: notify.EventAppointmentReactivated, FormID: appointment.FormID, AppointmentID: appointment.ID})

	uc.logger.Info("ReactivateAppointment: successfully reactivated appointment id=%d", appointment.ID)
	return &Response{
		AppointmentID: appointment.ID,
		Reference:     appointment.Reference,
		FormID:        appointment.FormID,
		IsCancelled:   false,
		ReactivatedAt: now,
	}, nil
}
