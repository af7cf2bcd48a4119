package reserve_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	formRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/form"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/workflowservice"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
	slotService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
)

// UseCase use case бронирования записи на прием. Координирует блокировки
// слотов, проверку мест, фиксацию в транзакции и уведомления.
type UseCase struct {
	forms        FormRepository
	appointments AppointmentRepository
	slots        SlotRepository
	slotService  SlotService
	locks        LockManager
	holds        HoldRegistry
	workflow     WorkflowClient
	events       EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
	lockTimeout  time.Duration
	sessionTTL   time.Duration

	// Защита от повторной отправки формы той же сессией
	savedSessions sync.Map
}

// savedSession отметка об уже сохраненной этой сессией записи
type savedSession struct {
	appointmentID int64
	savedAt       time.Time
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	forms FormRepository,
	appointments AppointmentRepository,
	slots SlotRepository,
	slotSvc SlotService,
	lockManager LockManager,
	holds HoldRegistry,
	workflow WorkflowClient,
	events EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		forms:        forms,
		appointments: appointments,
		slots:        slots,
		slotService:  slotSvc,
		locks:        lockManager,
		holds:        holds,
		workflow:     workflow,
		events:       events,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		lockTimeout:  domain.DefaultLockAcquireTimeoutSeconds * time.Second,
		sessionTTL:   domain.DefaultSavedSessionTTLMinutes * time.Minute,
	}
}

// SweepSavedSessions удаляет устаревшие отметки сессий. Запускается
// периодически, чтобы реестр отметок не рос вместе с историей бронирований.
// Возвращает количество удаленных отметок.
func (uc *UseCase) SweepSavedSessions() int {
	cutoff := uc.timeProvider.Now().Add(-uc.sessionTTL)
	removed := 0
	uc.savedSessions.Range(func(key, value interface{}) bool {
		if value.(savedSession).savedAt.Before(cutoff) {
			uc.savedSessions.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Execute выполняет бронирование. Блокировки всех затронутых слотов берутся
// до валидации мест и держатся до конца фиксации; неудача на любой из них
// отпускает уже взятые и отменяет бронирование целиком.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReserveAppointment: form=%d, user=%s, seats=%d, slots=%d",
		req.FormID, req.UserEmail, req.NbBookedSeats, len(req.Slots))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReserveAppointment: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Защита от двойной отправки: сессия, уже сохранившая запись,
	// не может сохранить её повторно, пока отметка не устарела
	if req.AppointmentID == 0 {
		if value, saved := uc.savedSessions.Load(req.SessionID); saved {
			if now.Sub(value.(savedSession).savedAt) < uc.sessionTTL {
				uc.logger.Warn("ReserveAppointment: session=%s already saved an appointment", req.SessionID)
				return nil, ErrAlreadySaved
			}
			uc.savedSessions.Delete(req.SessionID)
		}
	}

	// 3. Получаем форму
	form, err := uc.forms.FindByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, formRepo.ErrFormNotFound) {
			uc.logger.Warn("ReserveAppointment: form id=%d not found", req.FormID)
			return nil, ErrFormNotFound
		}
		uc.logger.Error("ReserveAppointment: failed to get form id=%d: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to get form: %v", ErrInternal, err)
	}

	// 4. Разрешаем целевые слоты: виртуальные сохраняются лениво
	targetSlots, err := uc.resolveTargetSlots(ctx, req)
	if err != nil {
		return nil, err
	}

	// 5. Проверяем лимит записей пользователя на период. Считаются только
	// записи на этой форме.
	if req.AppointmentID == 0 && form.HasAppointmentsPerUserLimit() {
		userSlots, err := uc.appointments.FindSlotsByUserEmail(ctx, req.UserEmail, req.FormID, 0)
		if err != nil {
			uc.logger.Error("ReserveAppointment: failed to get user slots: %v", err)
			return nil, fmt.Errorf("%w: failed to get user slots: %v", ErrInternal, err)
		}
		ok := checkNbMaxAppointmentsOnPeriod(userSlots, targetSlots[0].Date(),
			form.NbMaxAppointmentsPerUser, form.NbDaysForMaxAppointmentsPerUser)
		if !ok {
			uc.logger.Warn("ReserveAppointment: user=%s reached max appointments on period", req.UserEmail)
			return nil, ErrMaxAppointmentsReached
		}
	}

	// 6. Правка существующей записи: загружаем её и её слоты
	var oldAppointment *domain.Appointment
	if req.AppointmentID != 0 {
		oldAppointment, err = uc.appointments.FindByID(ctx, req.AppointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return nil, ErrAppointmentNotFound
			}
			uc.logger.Error("ReserveAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
			return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
		}
	}
	isReport := oldAppointment != nil && slotsChanged(oldAppointment, targetSlots)

	// 7. Берем блокировки всех затронутых слотов: сначала прежних (при
	// правке записи), затем целевых. Блокировки держатся до конца фиксации.
	acquired := make([]*locks.Lock, 0, len(targetSlots))
	lockByID := make(map[int64]*locks.Lock, len(targetSlots))
	defer func() {
		for _, lock := range acquired {
			lock.Release()
		}
	}()

	acquire := func(slotID int64) error {
		if _, held := lockByID[slotID]; held {
			return nil
		}
		lock := uc.locks.SlotLock(slotID)
		if !lock.AcquireTimeout(uc.lockTimeout) {
			uc.logger.Warn("ReserveAppointment: slot=%d is locked, aborting", slotID)
			return ErrSlotLocked
		}
		lockByID[slotID] = lock
		acquired = append(acquired, lock)
		return nil
	}

	if oldAppointment != nil {
		for _, slotID := range oldAppointment.SlotIDs() {
			if err := acquire(slotID); err != nil {
				return nil, err
			}
		}
	}
	for _, slot := range targetSlots {
		if err := acquire(slot.ID); err != nil {
			return nil, err
		}
	}

	// 8. Под блокировками перечитываем слоты и проверяем места. Прежним
	// слотам правимой записи места возвращаются в памяти; слот, остающийся
	// и в новом наборе, дальше идет именно этим экземпляром, чтобы возврат
	// не потерялся при перечитывании.
	var oldSlots []*domain.Slot
	var oldSnapshots []domain.Slot
	if oldAppointment != nil {
		oldSlots, oldSnapshots, err = uc.prepareMoveRelease(ctx, oldAppointment)
		if err != nil {
			return nil, err
		}
	}

	released := make(map[int64]*domain.Slot, len(oldSlots))
	for _, slot := range oldSlots {
		released[slot.ID] = slot
	}

	targetSlots, err = uc.refetchAndValidate(ctx, req, form, targetSlots, released, now)
	if err != nil {
		return nil, err
	}

	// 9. Фиксация в сериализуемой транзакции. Слоты, общие для прежнего и
	// нового набора, сохраняются целевым проходом: из старого списка они
	// убираются, чтобы возврат мест не перезаписал фиксацию.
	if len(oldSlots) > 0 {
		targetIDs := make(map[int64]bool, len(targetSlots))
		for _, slot := range targetSlots {
			targetIDs[slot.ID] = true
		}
		remaining := oldSlots[:0]
		for _, slot := range oldSlots {
			if !targetIDs[slot.ID] {
				remaining = append(remaining, slot)
			}
		}
		oldSlots = remaining
	}

	appointment, isSurbooked, err := uc.commit(ctx, req, form, targetSlots, oldSlots, oldAppointment, now)
	if err != nil {
		return nil, err
	}

	// 10. Workflow, уведомления и снятие удержаний после успешной фиксации
	uc.afterCommit(ctx, req, form, appointment, targetSlots, oldSnapshots, oldAppointment != nil, isReport)

	uc.savedSessions.Store(req.SessionID, savedSession{appointmentID: appointment.ID, savedAt: now})
	uc.logger.Info("ReserveAppointment: successfully reserved appointment id=%d reference=%s surbooked=%v",
		appointment.ID, appointment.Reference, isSurbooked)

	return buildResponse(appointment, targetSlots, isSurbooked), nil
}

// resolveTargetSlots загружает целевые слоты. Слот без идентификатора ищется
// в сгенерированной сетке дня по времени начала и сохраняется под
// блокировкой формы.
func (uc *UseCase) resolveTargetSlots(ctx context.Context, req *Request) ([]*domain.Slot, error) {
	result := make([]*domain.Slot, 0, len(req.Slots))
	for _, sr := range req.Slots {
		if sr.SlotID != 0 {
			slot, err := uc.slots.FindByID(ctx, sr.SlotID)
			if err != nil {
				if errors.Is(err, slotRepo.ErrSlotNotFound) {
					return nil, ErrSlotNotFound
				}
				return nil, fmt.Errorf("%w: failed to get slot %d: %v", ErrInternal, sr.SlotID, err)
			}
			result = append(result, slot)
			continue
		}

		daySlots, err := uc.slotService.BuildSlotList(ctx, req.FormID, sr.StartingDateTime, sr.StartingDateTime)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to build slot list: %v", ErrInternal, err)
		}
		var match *domain.Slot
		for _, ds := range daySlots {
			if ds.StartingDateTime.Equal(sr.StartingDateTime) {
				match = ds
				break
			}
		}
		if match == nil {
			return nil, ErrSlotNotFound
		}

		persisted, err := uc.slotService.CreateSlotIfAbsent(ctx, match)
		if err != nil {
			if errors.Is(err, slotService.ErrSlotLocked) {
				return nil, ErrSlotLocked
			}
			return nil, fmt.Errorf("%w: failed to persist slot: %v", ErrInternal, err)
		}
		result = append(result, persisted)
	}
	return result, nil
}

// prepareMoveRelease перечитывает слоты правимой записи и возвращает им
// места. Снимки до правки сохраняются для событий.
func (uc *UseCase) prepareMoveRelease(ctx context.Context, oldAppointment *domain.Appointment) ([]*domain.Slot, []domain.Slot, error) {
	oldSlots := make([]*domain.Slot, 0, len(oldAppointment.Slots))
	snapshots := make([]domain.Slot, 0, len(oldAppointment.Slots))

	for _, as := range oldAppointment.Slots {
		slot, err := uc.slots.FindByID(ctx, as.SlotID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to get old slot %d: %v", ErrInternal, as.SlotID, err)
		}
		snapshots = append(snapshots, slot.Snapshot())
		slotService.ApplyMoveRelease(slot, as.NbPlaces)
		oldSlots = append(oldSlots, slot)
	}
	return oldSlots, snapshots, nil
}

// refetchAndValidate перечитывает целевые слоты под блокировками и проверяет
// открытость, актуальность и достаточность мест. Слот из released уже
// перечитан, и его местам в памяти сделан возврат: он берется как есть, а не
// из репозитория
func (uc *UseCase) refetchAndValidate(ctx context.Context, req *Request, form *domain.Form, targetSlots []*domain.Slot, released map[int64]*domain.Slot, now time.Time) ([]*domain.Slot, error) {
	fresh := make([]*domain.Slot, 0, len(targetSlots))
	sumRemaining := 0

	for _, target := range targetSlots {
		slot, ok := released[target.ID]
		if !ok {
			var err error
			slot, err = uc.slots.FindByID(ctx, target.ID)
			if err != nil {
				if errors.Is(err, slotRepo.ErrSlotNotFound) {
					return nil, ErrSlotNotFound
				}
				return nil, fmt.Errorf("%w: failed to refetch slot %d: %v", ErrInternal, target.ID, err)
			}
		}

		if !slot.IsOpen {
			return nil, ErrSlotNotOpen
		}
		if slot.HasEnded(now) {
			return nil, ErrSlotEnded
		}
		if !form.IsOverbookingAllowed && req.NbBookedSeats > slot.NbRemainingPlaces {
			uc.logger.Warn("ReserveAppointment: slot=%d has %d remaining, %d requested",
				slot.ID, slot.NbRemainingPlaces, req.NbBookedSeats)
			return nil, ErrSlotFull
		}
		sumRemaining += slot.NbRemainingPlaces
		fresh = append(fresh, slot)
	}

	if !form.IsOverbookingAllowed && req.NbBookedSeats > sumRemaining {
		return nil, ErrSlotFull
	}
	return fresh, nil
}

// commit фиксирует бронирование: обновляет счетчики слотов и создает либо
// переносит запись в одной сериализуемой транзакции
func (uc *UseCase) commit(ctx context.Context, req *Request, form *domain.Form, targetSlots []*domain.Slot, oldSlots []*domain.Slot, oldAppointment *domain.Appointment, now time.Time) (*domain.Appointment, bool, error) {
	var appointment *domain.Appointment
	isSurbooked := false

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 9.1. Возврат мест старым слотам при переносе
		for _, oldSlot := range oldSlots {
			if err := uc.slots.Update(txCtx, oldSlot); err != nil {
				return fmt.Errorf("%w: failed to release old slot %d: %v", ErrInternal, oldSlot.ID, err)
			}
		}

		// 9.2. Занятие мест на целевых слотах. Удержанные этой же сессией
		// места возвращаются в потенциальные за вычетом занятых.
		for _, slot := range targetSlots {
			heldPlaces := 0
			if hold := uc.holds.ActiveHold(req.SessionID, slot.ID); hold != nil {
				heldPlaces = hold.NbPlaces
			}
			surbooked, err := slotService.ApplyCommit(slot, req.NbBookedSeats, heldPlaces, form.IsOverbookingAllowed)
			if err != nil {
				return ErrSlotFull
			}
			isSurbooked = isSurbooked || surbooked
			if err := uc.slots.Update(txCtx, slot); err != nil {
				return fmt.Errorf("%w: failed to update slot %d: %v", ErrInternal, slot.ID, err)
			}
		}

		appointmentSlots := make([]domain.AppointmentSlot, 0, len(targetSlots))
		for _, slot := range targetSlots {
			appointmentSlots = append(appointmentSlots, domain.AppointmentSlot{
				SlotID:   slot.ID,
				NbPlaces: req.NbBookedSeats,
			})
		}

		// 9.3. Создание новой записи или перенос существующей
		if oldAppointment == nil {
			appointment = &domain.Appointment{
				FormID:        req.FormID,
				Reference:     generateReference(),
				UserID:        req.UserID,
				UserEmail:     req.UserEmail,
				NbBookedSeats: req.NbBookedSeats,
				IsSurbooked:   isSurbooked,
				DateTaken:     now,
				Slots:         appointmentSlots,
			}
			created, err := uc.appointments.Create(txCtx, appointment)
			if err != nil {
				return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
			}
			appointment = created

			for _, item := range req.Responses {
				resp := &domain.AppointmentResponse{
					AppointmentID: appointment.ID,
					FieldCode:     item.FieldCode,
					Value:         item.Value,
				}
				if err := uc.appointments.CreateResponse(txCtx, resp); err != nil {
					return fmt.Errorf("%w: failed to create response: %v", ErrInternal, err)
				}
			}
			return nil
		}

		appointment = oldAppointment
		appointment.NbBookedSeats = req.NbBookedSeats
		appointment.IsSurbooked = isSurbooked
		appointment.Slots = appointmentSlots
		if err := uc.appointments.Update(txCtx, appointment); err != nil {
			return fmt.Errorf("%w: failed to update appointment: %v", ErrInternal, err)
		}
		if err := uc.appointments.UpdateSlots(txCtx, appointment); err != nil {
			return fmt.Errorf("%w: failed to update appointment slots: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return appointment, isSurbooked, nil
}

// afterCommit выполняет действия после фиксации: workflow, события и снятие
// удержаний. Ошибки здесь не откатывают бронирование.
func (uc *UseCase) afterCommit(ctx context.Context, req *Request, form *domain.Form, appointment *domain.Appointment, targetSlots []*domain.Slot, oldSnapshots []domain.Slot, isUpdate, isReport bool) {
	if form.HasWorkflow() {
		if _, err := uc.workflow.GetState(ctx, appointment.ID, domain.AppointmentResourceType, form.IDWorkflow); err != nil {
			uc.logger.Warn("ReserveAppointment: workflow state init skipped for appointment=%d: %v", appointment.ID, err)
		}
		if isReport && appointment.IDActionReported > 0 {
			err := uc.workflow.ProcessActionWithGracefulDegradation(ctx, workflowservice.ProcessActionRequest{
				ResourceID:   appointment.ID,
				ResourceType: domain.AppointmentResourceType,
				WorkflowID:   form.IDWorkflow,
				ActionID:     appointment.IDActionReported,
				UserAccess:   true,
			})
			if err == nil {
				uc.events.Publish(notify.Event{Type: notify.EventWorkflowActionRun, FormID: form.ID, AppointmentID: appointment.ID})
			}
		}
	}

	for _, snapshot := range oldSnapshots {
		uc.events.Publish(notify.Event{Type: notify.EventSlotChanged, FormID: snapshot.FormID, SlotID: snapshot.ID})
	}
	for _, slot := range targetSlots {
		uc.events.Publish(notify.Event{Type: notify.EventSlotChanged, FormID: slot.FormID, SlotID: slot.ID})
	}
	switch {
	case isReport:
		uc.events.Publish(notify.Event{Type: notify.EventAppointmentDateChanged, FormID: form.ID, AppointmentID: appointment.ID})
	case isUpdate:
		uc.events.Publish(notify.Event{Type: notify.EventAppointmentUpdated, FormID: form.ID, AppointmentID: appointment.ID})
	default:
		uc.events.Publish(notify.Event{Type: notify.EventAppointmentCreated, FormID: form.ID, AppointmentID: appointment.ID})
	}

	for _, slot := range targetSlots {
		uc.holds.CancelHold(req.SessionID, slot.ID)
	}
}

// slotsChanged возвращает true, если целевые слоты отличаются от слотов
// существующей записи
func slotsChanged(appointment *domain.Appointment, targetSlots []*domain.Slot) bool {
	oldIDs := make(map[int64]bool, len(appointment.Slots))
	for _, as := range appointment.Slots {
		oldIDs[as.SlotID] = true
	}
	if len(targetSlots) != len(appointment.Slots) {
		return true
	}
	for _, slot := range targetSlots {
		if !oldIDs[slot.ID] {
			return true
		}
	}
	return false
}

// generateReference генерирует уникальный номер записи для пользователя
func generateReference() string {
	return "APT-" + strings.ToUpper(uuid.NewString()[:8])
}

func buildResponse(appointment *domain.Appointment, targetSlots []*domain.Slot, isSurbooked bool) *Response {
	reserved := make([]ReservedSlot, 0, len(targetSlots))
	for _, slot := range targetSlots {
		reserved = append(reserved, ReservedSlot{
			SlotID:            slot.ID,
			StartingDateTime:  slot.StartingDateTime,
			EndingDateTime:    slot.EndingDateTime,
			NbPlaces:          appointment.SeatsOnSlot(slot.ID),
			NbRemainingPlaces: slot.NbRemainingPlaces,
		})
	}
	return &Response{
		AppointmentID: appointment.ID,
		Reference:     appointment.Reference,
		FormID:        appointment.FormID,
		UserID:        appointment.UserID,
		UserEmail:     appointment.UserEmail,
		NbBookedSeats: appointment.NbBookedSeats,
		IsSurbooked:   isSurbooked,
		DateTaken:     appointment.DateTaken,
		Slots:         reserved,
	}
}
