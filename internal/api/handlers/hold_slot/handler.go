package hold_slot

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	holdSeats "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
)

const (
	msgInvalidSlotID      = "некорректный идентификатор слота"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат даты и времени, ожидается YYYY-MM-DDTHH:MM:SS"
	msgSessionRequired    = "заголовок X-Session-ID обязателен"
	msgSlotNotFound       = "слот не найден"
	msgSlotNotOpen        = "слот закрыт для записи"
	msgNoPlaces           = "на слоте нет свободных мест"
	msgHoldNotFound       = "удержание не найдено"
)

type Handler struct {
	useCase HoldSeatsUseCase
	logger  Logger
}

func NewHandler(useCase HoldSeatsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// HandleHold POST /api/v1/slots/{slotId}/holds
func (h *Handler) HandleHold(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		handlers.RespondBadRequest(w, msgSessionRequired)
		return
	}

	slotID, err := strconv.ParseInt(mux.Vars(r)["slotId"], 10, 64)
	if err != nil || slotID < 0 {
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	var req HoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/{slotId}/holds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(slotID, sessionID)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, holdSeats.ErrSlotNotFound):
			h.logger.Warn("POST /slots/{slotId}/holds - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, holdSeats.ErrSlotNotOpen):
			h.logger.Warn("POST /slots/{slotId}/holds - Slot not open: slot_id=%d", slotID)
			handlers.RespondBadRequest(w, msgSlotNotOpen)

		case errors.Is(err, holdSeats.ErrNoPlacesAvailable):
			h.logger.Warn("POST /slots/{slotId}/holds - No places: slot_id=%d", slotID)
			handlers.RespondError(w, http.StatusConflict, msgNoPlaces)

		case errors.Is(err, holdSeats.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /slots/{slotId}/holds - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/{slotId}/holds - Held %d places: slot_id=%d, session=%s",
		result.NbPlaces, result.SlotID, sessionID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

// HandleRelease DELETE /api/v1/slots/{slotId}/holds
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		handlers.RespondBadRequest(w, msgSessionRequired)
		return
	}

	slotID, err := strconv.ParseInt(mux.Vars(r)["slotId"], 10, 64)
	if err != nil || slotID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	err = h.useCase.Release(r.Context(), &holdSeats.ReleaseRequest{
		SlotID:    slotID,
		SessionID: sessionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, holdSeats.ErrHoldNotFound):
			h.logger.Warn("DELETE /slots/{slotId}/holds - Hold not found: slot_id=%d, session=%s", slotID, sessionID)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, holdSeats.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("DELETE /slots/{slotId}/holds - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /slots/{slotId}/holds - Released: slot_id=%d, session=%s", slotID, sessionID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
