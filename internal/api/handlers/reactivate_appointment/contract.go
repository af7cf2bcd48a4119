package reactivate_appointment

import (
	"context"

	reactivateAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reactivate_appointment"
)

type ReactivateAppointmentUseCase interface {
	Execute(ctx context.Context, req *reactivateAppointment.Request) (*reactivateAppointment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
