package swap

import (
	"github.com/iov-one/swapkeep/errors"
)

// swap reserves 1000~1099 error codes
var (
	// ErrAlreadyDeposited is returned when a side of the current round is
	// already held by the escrow.
	ErrAlreadyDeposited = errors.Register(1000, "already deposited")

	// ErrNothingToWithdraw is returned when the caller has no asset in the
	// escrow custody.
	ErrNothingToWithdraw = errors.Register(1001, "nothing to withdraw")

	// ErrTransferFailed is returned when a ledger or a registry refused to
	// move an asset.
	ErrTransferFailed = errors.Register(1002, "transfer failed")

	// ErrUpkeepNotReady is returned when an action is requested but none is
	// due. Schedulers must treat it as a retryable condition.
	ErrUpkeepNotReady = errors.Register(1003, "upkeep not ready")
)
