package adjust_capacity

import (
	"context"
	"errors"
	"fmt"

	slotService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
)

// UseCase use case правки вместимости слотов оператором
type UseCase struct {
	slotService SlotService
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(slotSvc SlotService, logger Logger) *UseCase {
	return &UseCase{
		slotService: slotSvc,
		logger:      logger,
	}
}

// Execute меняет вместимость одного слота на дельту. Дельта добавляется ко
// всем счетчикам, занятые места сохраняются.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("AdjustCapacity: slot=%d, delta=%d", req.SlotID, req.Delta)

	// 1. Валидация входных данных
	if req.SlotID <= 0 {
		return nil, fmt.Errorf("%w: slot id must be positive", ErrInvalidInput)
	}
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrInvalidInput)
	}

	// 2. Применяем дельту под блокировкой слота
	slot, err := uc.slotService.IncrementMaxCapacity(ctx, req.SlotID, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, slotService.ErrSlotNotFound):
			uc.logger.Warn("AdjustCapacity: slot id=%d not found", req.SlotID)
			return nil, ErrSlotNotFound
		case errors.Is(err, slotService.ErrSlotLocked):
			uc.logger.Warn("AdjustCapacity: slot id=%d is locked", req.SlotID)
			return nil, ErrSlotLocked
		}
		uc.logger.Error("AdjustCapacity: failed to adjust slot id=%d: %v", req.SlotID, err)
		return nil, fmt.Errorf("%w: failed to adjust capacity: %v", ErrInternal, err)
	}

	uc.logger.Info("AdjustCapacity: slot=%d adjusted to max=%d", slot.ID, slot.MaxCapacity)
	return &Response{
		SlotID:                     slot.ID,
		MaxCapacity:                slot.MaxCapacity,
		NbRemainingPlaces:          slot.NbRemainingPlaces,
		NbPotentialRemainingPlaces: slot.NbPotentialRemainingPlaces,
		NbPlacesTaken:              slot.NbPlacesTaken,
		IsSpecific:                 slot.IsSpecific,
	}, nil
}

// ExecuteRange меняет вместимость всех слотов формы в диапазоне дат.
// Виртуальные слоты сетки сохраняются перед правкой, поэтому правка
// действует и на еще не тронутые дни.
func (uc *UseCase) ExecuteRange(ctx context.Context, req *RangeRequest) (*RangeResponse, error) {
	uc.logger.Info("AdjustCapacity: form=%d, delta=%d, from=%s, to=%s, lace=%v",
		req.FormID, req.Delta, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.Lace)

	// 1. Валидация входных данных
	if req.FormID <= 0 {
		return nil, fmt.Errorf("%w: form id must be positive", ErrInvalidInput)
	}
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrInvalidInput)
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}

	// 2. Применяем дельту ко всей сетке диапазона
	err := uc.slotService.IncrementMaxCapacityRange(ctx, req.FormID, req.StartDate, req.EndDate, req.Delta, req.Lace)
	if err != nil {
		switch {
		case errors.Is(err, slotService.ErrNoPlanningDefined):
			uc.logger.Warn("AdjustCapacity: form id=%d has no planning", req.FormID)
			return nil, ErrNoPlanningDefined
		case errors.Is(err, slotService.ErrInvalidDateRange):
			return nil, fmt.Errorf("%w: invalid date range", ErrInvalidInput)
		case errors.Is(err, slotService.ErrSlotLocked):
			uc.logger.Warn("AdjustCapacity: form id=%d range adjust hit a locked slot", req.FormID)
			return nil, ErrSlotLocked
		}
		uc.logger.Error("AdjustCapacity: failed to adjust form id=%d range: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to adjust capacity range: %v", ErrInternal, err)
	}

	return &RangeResponse{
		FormID:    req.FormID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Delta:     req.Delta,
		Lace:      req.Lace,
	}, nil
}
