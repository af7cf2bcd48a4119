package adjust_capacity

import (
	"context"

	adjustCapacity "github.com/m04kA/SMC-AppointmentService/internal/usecase/adjust_capacity"
)

type AdjustCapacityUseCase interface {
	Execute(ctx context.Context, req *adjustCapacity.Request) (*adjustCapacity.Response, error)
	ExecuteRange(ctx context.Context, req *adjustCapacity.RangeRequest) (*adjustCapacity.RangeResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
