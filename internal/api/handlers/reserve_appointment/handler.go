package reserve_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	reserveAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_appointment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат даты и времени, ожидается YYYY-MM-DDTHH:MM:SS"
	msgSessionRequired    = "заголовок X-Session-ID обязателен"
	msgFormNotFound       = "форма не найдена"
	msgSlotNotFound       = "слот не найден"
	msgSlotLocked         = "слот занят другим бронированием, попробуйте позже"
	msgSlotFull           = "на слоте не осталось свободных мест"
	msgSlotNotOpen        = "слот закрыт для записи"
	msgSlotEnded          = "слот уже прошел"
	msgAlreadySaved       = "запись уже сохранена"
	msgMaxAppointments    = "превышен лимит записей на период"
	msgAppointmentMissing = "переносимая запись не найдена"
)

type Handler struct {
	useCase ReserveAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase ReserveAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		handlers.RespondBadRequest(w, msgSessionRequired)
		return
	}

	var req ReserveAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID, sessionID)
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, reserveAppointment.ErrFormNotFound):
			h.logger.Warn("POST /appointments - Form not found: form_id=%d", req.FormID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, reserveAppointment.ErrSlotNotFound):
			h.logger.Warn("POST /appointments - Slot not found: form_id=%d", req.FormID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, reserveAppointment.ErrAppointmentNotFound):
			h.logger.Warn("POST /appointments - Appointment not found: appointment_id=%d", req.AppointmentID)
			handlers.RespondNotFound(w, msgAppointmentMissing)

		case errors.Is(err, reserveAppointment.ErrSlotLocked):
			h.logger.Warn("POST /appointments - Slot locked: form_id=%d, user_id=%d", req.FormID, userID)
			handlers.RespondError(w, http.StatusConflict, msgSlotLocked)

		case errors.Is(err, reserveAppointment.ErrSlotFull):
			h.logger.Warn("POST /appointments - Slot full: form_id=%d, user_id=%d", req.FormID, userID)
			handlers.RespondError(w, http.StatusConflict, msgSlotFull)

		case errors.Is(err, reserveAppointment.ErrAlreadySaved):
			h.logger.Warn("POST /appointments - Already saved: session=%s", sessionID)
			handlers.RespondError(w, http.StatusConflict, msgAlreadySaved)

		case errors.Is(err, reserveAppointment.ErrMaxAppointmentsReached):
			h.logger.Warn("POST /appointments - Max appointments reached: user=%s", req.UserEmail)
			handlers.RespondError(w, http.StatusConflict, msgMaxAppointments)

		case errors.Is(err, reserveAppointment.ErrSlotNotOpen):
			h.logger.Warn("POST /appointments - Slot not open: form_id=%d", req.FormID)
			handlers.RespondBadRequest(w, msgSlotNotOpen)

		case errors.Is(err, reserveAppointment.ErrSlotEnded):
			h.logger.Warn("POST /appointments - Slot ended: form_id=%d", req.FormID)
			handlers.RespondBadRequest(w, msgSlotEnded)

		case errors.Is(err, reserveAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /appointments - Failed to reserve: form_id=%d, user_id=%d, error=%v",
				req.FormID, userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment reserved: id=%d, reference=%s, user_id=%d",
		result.AppointmentID, result.Reference, userID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
