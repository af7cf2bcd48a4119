package adjust_capacity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	adjustCapacity "github.com/m04kA/SMC-AppointmentService/internal/usecase/adjust_capacity"
)

const (
	msgInvalidSlotID     = "некорректный идентификатор слота"
	msgInvalidFormID     = "некорректный идентификатор формы"
	msgInvalidBody       = "некорректное тело запроса"
	msgSlotNotFound      = "слот не найден"
	msgFormNoPlanning    = "у формы нет расписания"
	msgSlotLocked        = "слот занят другим бронированием, попробуйте позже"
	msgInvalidAdjustment = "некорректные параметры правки вместимости"
)

type Handler struct {
	useCase AdjustCapacityUseCase
	logger  Logger
}

func NewHandler(useCase AdjustCapacityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// HandleSlot PATCH /api/v1/slots/{slotId}/capacity
func (h *Handler) HandleSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := strconv.ParseInt(mux.Vars(r)["slotId"], 10, 64)
	if err != nil || slotID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	var req AdjustRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &adjustCapacity.Request{
		SlotID: slotID,
		Delta:  req.Delta,
	})
	if err != nil {
		switch {
		case errors.Is(err, adjustCapacity.ErrSlotNotFound):
			h.logger.Warn("PATCH /slots/{id}/capacity - Not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, adjustCapacity.ErrSlotLocked):
			h.logger.Warn("PATCH /slots/{id}/capacity - Slot locked: slot_id=%d", slotID)
			handlers.RespondError(w, http.StatusConflict, msgSlotLocked)

		case errors.Is(err, adjustCapacity.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidAdjustment)

		default:
			h.logger.Error("PATCH /slots/{id}/capacity - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /slots/{id}/capacity - Adjusted: slot_id=%d, max=%d", slotID, result.MaxCapacity)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

// HandleRange PATCH /api/v1/forms/{formId}/slots/capacity
func (h *Handler) HandleRange(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(mux.Vars(r)["formId"], 10, 64)
	if err != nil || formID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	var req AdjustRangeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	ucReq, err := req.ToUseCaseRequest(formID)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	result, err := h.useCase.ExecuteRange(r.Context(), ucReq)
	if err != nil {
		switch {
		case errors.Is(err, adjustCapacity.ErrNoPlanningDefined):
			h.logger.Warn("PATCH /forms/{id}/slots/capacity - No planning: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNoPlanning)

		case errors.Is(err, adjustCapacity.ErrSlotLocked):
			h.logger.Warn("PATCH /forms/{id}/slots/capacity - Slot locked: form_id=%d", formID)
			handlers.RespondError(w, http.StatusConflict, msgSlotLocked)

		case errors.Is(err, adjustCapacity.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidAdjustment)

		default:
			h.logger.Error("PATCH /forms/{id}/slots/capacity - Failed: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /forms/{id}/slots/capacity - Adjusted: form_id=%d, delta=%d", formID, result.Delta)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseRangeResponse(result))
}
