package reactivate_appointment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	reactivateAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reactivate_appointment"
)

const (
	msgInvalidAppointmentID = "некорректный идентификатор записи"
	msgAppointmentNotFound  = "запись не найдена"
	msgNotCancelled         = "запись не отменена"
	msgSlotEnded            = "время слота уже прошло"
	msgAccessDenied         = "нет прав на возврат этой записи"
	msgSlotLocked           = "слот занят другим бронированием, попробуйте позже"
)

type Handler struct {
	useCase ReactivateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase ReactivateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{appointmentId}/reactivate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := strconv.ParseInt(mux.Vars(r)["appointmentId"], 10, 64)
	if err != nil || appointmentID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	result, err := h.useCase.Execute(r.Context(), &reactivateAppointment.Request{
		AppointmentID: appointmentID,
		UserID:        userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, reactivateAppointment.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/{id}/reactivate - Not found: appointment_id=%d", appointmentID)
			handlers.RespondNotFound(w, msgAppointmentNotFound)

		case errors.Is(err, reactivateAppointment.ErrNotCancelled):
			h.logger.Warn("PATCH /appointments/{id}/reactivate - Not cancelled: appointment_id=%d", appointmentID)
			handlers.RespondError(w, http.StatusConflict, msgNotCancelled)

		case errors.Is(err, reactivateAppointment.ErrSlotEnded):
			h.logger.Warn("PATCH /appointments/{id}/reactivate - Slot ended: appointment_id=%d", appointmentID)
			handlers.RespondError(w, http.StatusConflict, msgSlotEnded)

		case errors.Is(err, reactivateAppointment.ErrAccessDenied):
			h.logger.Warn("PATCH /appointments/{id}/reactivate - Access denied: appointment_id=%d, user_id=%d", appointmentID, userID)
			handlers.RespondError(w, http.StatusForbidden, msgAccessDenied)

		case errors.Is(err, reactivateAppointment.ErrSlotLocked):
			h.logger.Warn("PATCH /appointments/{id}/reactivate - Slot locked: appointment_id=%d", appointmentID)
			handlers.RespondError(w, http.StatusConflict, msgSlotLocked)

		case errors.Is(err, reactivateAppointment.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidAppointmentID)

		default:
			h.logger.Error("PATCH /appointments/{id}/reactivate - Failed: appointment_id=%d, error=%v", appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/reactivate - Reactivated: appointment_id=%d, user_id=%d", appointmentID, userID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
