package update_schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	updateSchedule "github.com/m04kA/SMC-AppointmentService/internal/usecase/update_schedule"
)

const (
	msgInvalidFormID      = "некорректный идентификатор формы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgFormNotFound       = "форма не найдена"
	msgTimeSlotNotFound   = "шаблон временного интервала не найден"
	msgScheduleConflict   = "на затронутых слотах есть активные записи"
	msgSlotLocked         = "слот заблокирован другим бронированием, повторите попытку"
)

type Handler struct {
	useCase UpdateScheduleUseCase
	logger  Logger
}

func NewHandler(useCase UpdateScheduleUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PUT /api/v1/forms/{formId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(mux.Vars(r)["formId"], 10, 64)
	if err != nil || formID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	var req UpdateScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /forms/{formId}/schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(formID))
	if err != nil {
		switch {
		case errors.Is(err, updateSchedule.ErrFormNotFound):
			h.logger.Warn("PUT /forms/{formId}/schedule - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, updateSchedule.ErrTimeSlotNotFound):
			h.logger.Warn("PUT /forms/{formId}/schedule - Time slot not found: form_id=%d, time_slot_id=%d",
				formID, req.TimeSlotID)
			handlers.RespondNotFound(w, msgTimeSlotNotFound)

		case errors.Is(err, updateSchedule.ErrScheduleConflict):
			h.logger.Warn("PUT /forms/{formId}/schedule - Active appointments on impacted slots: form_id=%d, time_slot_id=%d",
				formID, req.TimeSlotID)
			handlers.RespondError(w, http.StatusConflict, msgScheduleConflict)

		case errors.Is(err, updateSchedule.ErrSlotLocked):
			h.logger.Warn("PUT /forms/{formId}/schedule - Slot locked: form_id=%d", formID)
			handlers.RespondError(w, http.StatusConflict, msgSlotLocked)

		case errors.Is(err, updateSchedule.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("PUT /forms/{formId}/schedule - Failed: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /forms/{formId}/schedule - Updated time slot %d, impacted slots: %d",
		result.TimeSlotID, result.ImpactedSlots)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
