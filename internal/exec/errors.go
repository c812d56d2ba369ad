package exec

import "github.com/pkg/errors"

// Error taxonomy for the executor layer, per spec.md §7.
var (
	ErrFailedToLift               = errors.New("exec: failed to lift task")
	ErrFailedToSchedule           = errors.New("exec: failed to schedule task")
	ErrParentMustBeExecutingToLift = errors.New("exec: parent must be executing to lift")
	ErrParentMustBeSupplied       = errors.New("exec: parent entry must be supplied")
	ErrQueueClosed                = errors.New("exec: queue closed")
	ErrQueueFull                  = errors.New("exec: queue full")
	ErrTaskRequired               = errors.New("exec: task iterator required")
	ErrNotSupported               = errors.New("exec: operation not supported")
)
