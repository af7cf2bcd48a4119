package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

const (
	msgInvalidFormID    = "некорректный идентификатор формы"
	msgInvalidDateRange = "некорректный диапазон дат, ожидается YYYY-MM-DD"
	msgFormNotFound     = "форма не найдена"
	msgNoPlanning       = "у формы нет расписания"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/forms/{formId}/slots?startDate=...&endDate=...&onlyAvailable=true
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(mux.Vars(r)["formId"], 10, 64)
	if err != nil || formID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	query := r.URL.Query()
	startDate, err := time.Parse(domain.DateFormat, query.Get("startDate"))
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDateRange)
		return
	}
	endDate, err := time.Parse(domain.DateFormat, query.Get("endDate"))
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDateRange)
		return
	}
	onlyAvailable := query.Get("onlyAvailable") == "true"

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		FormID:        formID,
		StartDate:     startDate,
		EndDate:       endDate,
		OnlyAvailable: onlyAvailable,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrFormNotFound):
			h.logger.Warn("GET /forms/{formId}/slots - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, getAvailableSlots.ErrNoPlanningDefined):
			h.logger.Warn("GET /forms/{formId}/slots - No planning: form_id=%d", formID)
			handlers.RespondNotFound(w, msgNoPlanning)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /forms/{formId}/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDateRange)

		default:
			h.logger.Error("GET /forms/{formId}/slots - Failed: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
