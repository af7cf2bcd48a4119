package hold_slot

import (
	"context"

	holdSeats "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
)

type HoldSeatsUseCase interface {
	Execute(ctx context.Context, req *holdSeats.Request) (*holdSeats.Response, error)
	Release(ctx context.Context, req *holdSeats.ReleaseRequest) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
