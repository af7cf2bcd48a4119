package hold_seats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
)

// UseCase use case удержания мест на слоте, пока пользователь заполняет
// форму записи
type UseCase struct {
	slots       SlotRepository
	slotService SlotService
	rules       RuleRepository
	holds       HoldRegistry
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(slots SlotRepository, slotSvc SlotService, rules RuleRepository, holds HoldRegistry, logger Logger) *UseCase {
	return &UseCase{
		slots:       slots,
		slotService: slotSvc,
		rules:       rules,
		holds:       holds,
		logger:      logger,
	}
}

// Execute удерживает места на слоте для сессии. Виртуальный слот сначала
// сохраняется, затем места вычитаются из потенциально свободных.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("HoldSeats: form=%d, slot=%d, session=%s", req.FormID, req.SlotID, req.SessionID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("HoldSeats: validation failed: %v", err)
		return nil, err
	}

	// 2. Разрешаем слот: виртуальный сохраняется лениво
	slot, err := uc.resolveSlot(ctx, req)
	if err != nil {
		return nil, err
	}
	if !slot.IsOpen {
		uc.logger.Warn("HoldSeats: slot=%d is not open", slot.ID)
		return nil, ErrSlotNotOpen
	}

	// 3. Определяем размер удержания по действующему правилу
	maxPeople := uc.maxPeoplePerAppointment(ctx, req.FormID, slot)

	// 4. Удерживаем места
	hold, err := uc.holds.HoldSeats(ctx, req.SessionID, slot.ID, maxPeople)
	if err != nil {
		if errors.Is(err, locks.ErrNoPlacesAvailable) {
			uc.logger.Warn("HoldSeats: slot=%d has no potential places", slot.ID)
			return nil, ErrNoPlacesAvailable
		}
		uc.logger.Error("HoldSeats: failed to hold places on slot=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: failed to hold places: %v", ErrInternal, err)
	}

	return &Response{
		HoldID:    hold.ID,
		SlotID:    hold.SlotID,
		NbPlaces:  hold.NbPlaces,
		ExpiresAt: hold.ExpiresAt,
	}, nil
}

// Release снимает удержание сессии и возвращает места слоту
func (uc *UseCase) Release(ctx context.Context, req *ReleaseRequest) error {
	uc.logger.Info("ReleaseHold: slot=%d, session=%s", req.SlotID, req.SessionID)

	if req.SlotID <= 0 || strings.TrimSpace(req.SessionID) == "" {
		return fmt.Errorf("%w: slot id and session id are required", ErrInvalidInput)
	}

	err := uc.holds.ReleaseHold(ctx, req.SessionID, req.SlotID)
	if err != nil {
		if errors.Is(err, locks.ErrHoldNotFound) {
			return ErrHoldNotFound
		}
		uc.logger.Error("ReleaseHold: failed to release hold on slot=%d: %v", req.SlotID, err)
		return fmt.Errorf("%w: failed to release hold: %v", ErrInternal, err)
	}
	return nil
}

func (uc *UseCase) resolveSlot(ctx context.Context, req *Request) (*domain.Slot, error) {
	if req.SlotID != 0 {
		slot, err := uc.slots.FindByID(ctx, req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return nil, ErrSlotNotFound
			}
			return nil, fmt.Errorf("%w: failed to get slot %d: %v", ErrInternal, req.SlotID, err)
		}
		return slot, nil
	}

	daySlots, err := uc.slotService.BuildSlotList(ctx, req.FormID, req.StartingDateTime, req.StartingDateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build slot list: %v", ErrInternal, err)
	}
	for _, ds := range daySlots {
		if ds.StartingDateTime.Equal(req.StartingDateTime) {
			persisted, err := uc.slotService.CreateSlotIfAbsent(ctx, ds)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to persist slot: %v", ErrInternal, err)
			}
			return persisted, nil
		}
	}
	return nil, ErrSlotNotFound
}

// maxPeoplePerAppointment возвращает максимум людей на одну запись по
// правилу, действующему на дату слота
func (uc *UseCase) maxPeoplePerAppointment(ctx context.Context, formID int64, slot *domain.Slot) int {
	rules, err := uc.rules.FindByForm(ctx, formID)
	if err != nil || len(rules) == 0 {
		return domain.DefaultMaxPeoplePerAppointment
	}

	dates := make([]time.Time, 0, len(rules))
	for _, r := range rules {
		dates = append(dates, r.DateOfApply)
	}
	closest := domain.ClosestDateInPast(dates, slot.Date())
	for _, r := range rules {
		if r.DateOfApply.Equal(closest) && r.MaxPeoplePerAppointment > 0 {
			return r.MaxPeoplePerAppointment
		}
	}
	return domain.DefaultMaxPeoplePerAppointment
}
