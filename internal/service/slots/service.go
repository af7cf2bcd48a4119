package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

// Service сервис календаря слотов: генерация по расписанию, сохранение,
// правки вместимости и изменение сетки слотов
type Service struct {
	slots       SlotRepository
	planning    PlanningRepository
	rules       RuleRepository
	locks       *locks.Manager
	events      EventPublisher
	logger      Logger
	lockTimeout time.Duration
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	slots SlotRepository,
	planning PlanningRepository,
	rules RuleRepository,
	lockManager *locks.Manager,
	events EventPublisher,
	logger Logger,
) *Service {
	return &Service{
		slots:       slots,
		planning:    planning,
		rules:       rules,
		locks:       lockManager,
		events:      events,
		logger:      logger,
		lockTimeout: domain.DefaultLockAcquireTimeoutSeconds * time.Second,
	}
}

// GetSlot получает сохраненный слот по идентификатору
func (s *Service) GetSlot(ctx context.Context, slotID int64) (*domain.Slot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: GetSlot - repository error: %v", ErrInternal, err)
	}
	return slot, nil
}

// SaveSlot сохраняет слот: виртуальный создается, сохраненный обновляется.
// Рассылает событие создания или изменения слота.
func (s *Service) SaveSlot(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	if slot.IsVirtual() {
		created, err := s.slots.Create(ctx, slot)
		if err != nil {
			return nil, fmt.Errorf("%w: SaveSlot - create slot: %v", ErrInternal, err)
		}
		s.events.Publish(notify.Event{Type: notify.EventSlotCreated, FormID: created.FormID, SlotID: created.ID})
		return created, nil
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: SaveSlot - update slot: %v", ErrInternal, err)
	}
	s.events.Publish(notify.Event{Type: notify.EventSlotChanged, FormID: slot.FormID, SlotID: slot.ID})
	return slot, nil
}

// CreateSlotIfAbsent сохраняет виртуальный слот под блокировкой формы.
// Если конкурентный запрос успел сохранить слот с тем же временем начала,
// возвращается сохраненная строка, а не дубликат.
func (s *Service) CreateSlotIfAbsent(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	if !slot.IsVirtual() {
		return slot, nil
	}

	formLock := s.locks.FormLock(slot.FormID)
	if !formLock.AcquireTimeout(s.lockTimeout) {
		return nil, ErrSlotLocked
	}
	defer formLock.Release()

	persisted, err := s.slots.FindByFormAndDateRange(ctx, slot.FormID, slot.StartingDateTime, slot.StartingDateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateSlotIfAbsent - fetch persisted slots: %v", ErrInternal, err)
	}
	for _, ps := range persisted {
		if ps.StartingDateTime.Equal(slot.StartingDateTime) {
			return ps, nil
		}
	}
	return s.SaveSlot(ctx, slot)
}

// DeleteSlot удаляет слот вместе с его блокировкой из реестра
func (s *Service) DeleteSlot(ctx context.Context, slot *domain.Slot) error {
	if slot.IsVirtual() {
		return nil
	}
	if err := s.slots.Delete(ctx, slot.ID); err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("%w: DeleteSlot - delete slot: %v", ErrInternal, err)
	}
	s.locks.RemoveSlotLock(slot.ID)
	s.events.Publish(notify.Event{Type: notify.EventSlotRemoved, FormID: slot.FormID, SlotID: slot.ID})
	return nil
}

// IncrementMaxCapacity меняет вместимость слота на delta под блокировкой
// слота. Дельта добавляется ко всем счетчикам, занятые места сохраняются.
func (s *Service) IncrementMaxCapacity(ctx context.Context, slotID int64, delta int) (*domain.Slot, error) {
	lock := s.locks.SlotLock(slotID)
	if !lock.AcquireTimeout(s.lockTimeout) {
		return nil, ErrSlotLocked
	}
	defer lock.Release()

	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	s.applyCapacityDelta(ctx, slot, delta)
	return s.SaveSlot(ctx, slot)
}

// IncrementMaxCapacityRange меняет вместимость всех слотов формы в диапазоне
// дат. При lace правка применяется через один слот, начиная с первого.
// Виртуальные слоты сохраняются перед правкой.
func (s *Service) IncrementMaxCapacityRange(ctx context.Context, formID int64, startDate, endDate time.Time, delta int, lace bool) error {
	slotList, err := s.BuildSlotList(ctx, formID, startDate, endDate)
	if err != nil {
		return err
	}

	for i, slot := range slotList {
		if lace && i%2 != 0 {
			continue
		}

		slot, err = s.CreateSlotIfAbsent(ctx, slot)
		if err != nil {
			return err
		}

		lock := s.locks.SlotLock(slot.ID)
		if !lock.AcquireTimeout(s.lockTimeout) {
			return ErrSlotLocked
		}
		s.applyCapacityDelta(ctx, slot, delta)
		_, err = s.SaveSlot(ctx, slot)
		lock.Release()
		if err != nil {
			return err
		}
	}

	s.logger.Info("IncrementMaxCapacityRange: form=%d delta=%d lace=%v slots=%d", formID, delta, lace, len(slotList))
	return nil
}

// applyCapacityDelta добавляет дельту к счетчикам слота и пересчитывает
// признак особого слота относительно действующего правила
func (s *Service) applyCapacityDelta(ctx context.Context, slot *domain.Slot, delta int) {
	slot.MaxCapacity += delta
	slot.NbRemainingPlaces += delta
	slot.NbPotentialRemainingPlaces += delta

	planning, err := s.loadPlanning(ctx, slot.FormID, slot.Date(), slot.Date())
	if err != nil {
		s.logger.Warn("applyCapacityDelta: cannot resolve rule for slot=%d: %v", slot.ID, err)
		return
	}
	if rule := planning.ruleFor(slot.Date()); rule != nil {
		slot.IsSpecific = slot.MaxCapacity != rule.MaxCapacityPerSlot
	}
}
