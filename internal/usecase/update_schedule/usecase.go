package update_schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	planningRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/planning"
	slotService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// UseCase use case правки сетки расписания: изменение шаблона временного
// интервала с распространением на сохраненные слоты
type UseCase struct {
	forms        FormRepository
	planning     PlanningRepository
	appointments AppointmentRepository
	slotService  SlotService
	locks        LockManager
	txManager    TransactionManager
	logger       Logger
	lockTimeout  time.Duration
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	forms FormRepository,
	planning PlanningRepository,
	appointments AppointmentRepository,
	slotSvc SlotService,
	lockManager LockManager,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		forms:        forms,
		planning:     planning,
		appointments: appointments,
		slotService:  slotSvc,
		locks:        lockManager,
		txManager:    txManager,
		logger:       logger,
		lockTimeout:  domain.DefaultLockAcquireTimeoutSeconds * time.Second,
	}
}

// Execute применяет правку шаблона. Конфликт с активными записями
// проверяется до любых изменений: разрушающая правка сетки со слотами, на
// которые кто-то записан, отклоняется целиком.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("UpdateSchedule: form=%d, timeSlot=%d, shift=%v", req.FormID, req.TimeSlotID, req.Shift)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("UpdateSchedule: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем форму и шаблон
	form, err := uc.forms.FindByID(ctx, req.FormID)
	if err != nil {
		uc.logger.Warn("UpdateSchedule: form id=%d not found: %v", req.FormID, err)
		return nil, ErrFormNotFound
	}

	timeSlot, err := uc.planning.FindTimeSlotByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, planningRepo.ErrTimeSlotNotFound) {
			uc.logger.Warn("UpdateSchedule: time slot id=%d not found", req.TimeSlotID)
			return nil, ErrTimeSlotNotFound
		}
		uc.logger.Error("UpdateSchedule: failed to get time slot id=%d: %v", req.TimeSlotID, err)
		return nil, fmt.Errorf("%w: failed to get time slot: %v", ErrInternal, err)
	}

	weekDefinition, err := uc.planning.FindWeekDefinitionByWorkingDay(ctx, timeSlot.WorkingDayID)
	if err != nil {
		uc.logger.Error("UpdateSchedule: failed to get week definition for working day=%d: %v", timeSlot.WorkingDayID, err)
		return nil, fmt.Errorf("%w: failed to get week definition: %v", ErrInternal, err)
	}
	var workingDay *domain.WorkingDay
	for i := range weekDefinition.WorkingDays {
		if weekDefinition.WorkingDays[i].ID == timeSlot.WorkingDayID {
			workingDay = &weekDefinition.WorkingDays[i]
			break
		}
	}
	if workingDay == nil {
		return nil, fmt.Errorf("%w: working day %d not in week definition %d", ErrInternal, timeSlot.WorkingDayID, weekDefinition.ID)
	}

	// 3. Собираем правленый шаблон
	edited := *timeSlot
	if req.EndingTime != "" {
		edited.EndingTime = types.TimeString(req.EndingTime)
	}
	edited.MaxCapacity = req.MaxCapacity
	edited.IsOpen = req.IsOpen

	// 4. Находим сохраненные слоты, которые заденет правка
	impacted, err := uc.slotService.FindSlotsImpactedByTimeSlot(ctx, form, &edited, workingDay, weekDefinition, req.Shift)
	if err != nil {
		uc.logger.Error("UpdateSchedule: failed to find impacted slots: %v", err)
		return nil, fmt.Errorf("%w: failed to find impacted slots: %v", ErrInternal, err)
	}

	// 5. Проверяем конфликт с активными записями до любых изменений
	if len(impacted) > 0 && uc.isDestructive(timeSlot, &edited) {
		slotIDs := make([]int64, 0, len(impacted))
		for _, s := range impacted {
			slotIDs = append(slotIDs, s.ID)
		}
		appointments, err := uc.appointments.FindActiveBySlotIDs(ctx, slotIDs)
		if err != nil {
			uc.logger.Error("UpdateSchedule: failed to check appointments: %v", err)
			return nil, fmt.Errorf("%w: failed to check appointments: %v", ErrInternal, err)
		}
		if len(appointments) > 0 {
			uc.logger.Warn("UpdateSchedule: %d active appointments on impacted slots, rejecting", len(appointments))
			return nil, fmt.Errorf("%w: %d appointments", ErrScheduleConflict, len(appointments))
		}
	}

	// 6. Сохраняем шаблон
	if err := uc.planning.UpdateTimeSlot(ctx, &edited); err != nil {
		uc.logger.Error("UpdateSchedule: failed to update time slot: %v", err)
		return nil, fmt.Errorf("%w: failed to update time slot: %v", ErrInternal, err)
	}

	// 7. Распространяем правку на сохраненные слоты под их блокировками
	for _, slot := range impacted {
		if err := uc.propagate(ctx, slot, &edited, req.Shift); err != nil {
			return nil, err
		}
	}

	uc.logger.Info("UpdateSchedule: time slot=%d updated, %d slots impacted", req.TimeSlotID, len(impacted))
	return &Response{
		TimeSlotID:    req.TimeSlotID,
		ImpactedSlots: len(impacted),
	}, nil
}

// isDestructive возвращает true, если правка может урезать уже занятые
// места: смена границ, закрытие или уменьшение вместимости
func (uc *UseCase) isDestructive(current, edited *domain.TimeSlot) bool {
	if !edited.EndingTime.Equal(current.EndingTime) {
		return true
	}
	if current.IsOpen && !edited.IsOpen {
		return true
	}
	if edited.MaxCapacity != 0 && edited.MaxCapacity < current.MaxCapacity {
		return true
	}
	return false
}

// propagate применяет правленый шаблон к одному сохраненному слоту
func (uc *UseCase) propagate(ctx context.Context, slot *domain.Slot, edited *domain.TimeSlot, shift bool) error {
	lock := uc.locks.SlotLock(slot.ID)
	if !lock.AcquireTimeout(uc.lockTimeout) {
		uc.logger.Warn("UpdateSchedule: slot=%d is locked, aborting", slot.ID)
		return ErrSlotLocked
	}
	defer lock.Release()

	previousEnd := slot.EndingDateTime

	newEnd, err := edited.EndingTime.AtDate(slot.Date())
	if err != nil {
		return fmt.Errorf("%w: invalid template ending time: %v", ErrInternal, err)
	}
	slot.EndingDateTime = newEnd
	slot.IsOpen = edited.IsOpen
	if edited.MaxCapacity != 0 && edited.MaxCapacity != slot.MaxCapacity {
		slotService.RefreshRemainingPlaces(slot, edited.MaxCapacity)
	}

	return uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := uc.slotService.UpdateSlot(txCtx, slot, previousEnd, shift); err != nil {
			return fmt.Errorf("%w: failed to update slot %d: %v", ErrInternal, slot.ID, err)
		}
		return nil
	})
}
