package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	formRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/form"
	slotService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
)

// UseCase use case получения слотов формы на диапазон дат
type UseCase struct {
	forms        FormRepository
	slotService  SlotService
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(forms FormRepository, slotSvc SlotService, logger Logger) *UseCase {
	return &UseCase{
		forms:        forms,
		slotService:  slotSvc,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute строит слоты формы по расписанию, подменяя виртуальные слоты
// сохраненными строками
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: form=%d, from=%s, to=%s, onlyAvailable=%v",
		req.FormID, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.OnlyAvailable)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем существование формы
	if _, err := uc.forms.FindByID(ctx, req.FormID); err != nil {
		if errors.Is(err, formRepo.ErrFormNotFound) {
			uc.logger.Warn("GetAvailableSlots: form id=%d not found", req.FormID)
			return nil, ErrFormNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get form id=%d: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to get form: %v", ErrInternal, err)
	}

	// 3. Строим слоты по расписанию
	slots, err := uc.slotService.BuildSlotList(ctx, req.FormID, req.StartDate, req.EndDate)
	if err != nil {
		if errors.Is(err, slotService.ErrNoPlanningDefined) {
			uc.logger.Warn("GetAvailableSlots: form id=%d has no planning", req.FormID)
			return nil, ErrNoPlanningDefined
		}
		uc.logger.Error("GetAvailableSlots: failed to build slot list: %v", err)
		return nil, fmt.Errorf("%w: failed to build slot list: %v", ErrInternal, err)
	}

	// 4. Фильтруем по доступности при необходимости. Для пользователя слот
	// доступен, пока есть потенциально свободные места: удержания других
	// сессий уже учтены.
	now := uc.timeProvider.Now()
	result := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if req.OnlyAvailable {
			if !s.IsOpen || s.NbPotentialRemainingPlaces <= 0 || s.HasEnded(now) {
				continue
			}
		}
		result = append(result, Slot{
			SlotID:                     s.ID,
			StartingDateTime:           s.StartingDateTime,
			EndingDateTime:             s.EndingDateTime,
			MaxCapacity:                s.MaxCapacity,
			NbRemainingPlaces:          s.NbRemainingPlaces,
			NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
			NbPlacesTaken:              s.NbPlacesTaken,
			IsOpen:                     s.IsOpen,
			IsSpecific:                 s.IsSpecific,
		})
	}

	// 5. Если фильтр не оставил ни одного слота, подсказываем дату
	// ближайшего свободного слота за пределами диапазона
	var nextAvailable *time.Time
	if req.OnlyAvailable && len(result) == 0 {
		next, err := uc.slotService.FindFirstFreeOpenSlotDate(ctx, req.FormID, now, domain.DefaultFreeSlotSearchHorizonDays)
		if err != nil {
			uc.logger.Warn("GetAvailableSlots: free slot lookup failed for form=%d: %v", req.FormID, err)
		} else if !next.IsZero() {
			nextAvailable = &next
		}
	}

	uc.logger.Info("GetAvailableSlots: form=%d returned %d slots", req.FormID, len(result))
	return &Response{
		FormID:            req.FormID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Slots:             result,
		NextAvailableDate: nextAvailable,
	}, nil
}
