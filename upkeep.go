package swapkeep

import (
	"context"
)

// Upkeep is implemented by an extension that has work to do when a
// condition is met, but is not able to trigger that work by itself. An
// external scheduler repeatedly asks IsActionDue and when it returns true
// it calls PerformAction with the returned payload.
//
// There is no guarantee that the state did not change between both calls.
// PerformAction must validate all conditions again and return an error
// when nothing is due anymore. Such an error is expected and must be
// handled by the scheduler as a retryable condition.
type Upkeep interface {
	// IsActionDue must not modify any state and must be cheap to call. It
	// never fails, a false result means that no action is expected.
	IsActionDue(ctx context.Context) (due bool, payload []byte)

	// PerformAction executes the action that IsActionDue declared due.
	PerformAction(ctx context.Context, payload []byte) error
}
