package engine

import "errors"

var (
	// ErrAllocationNonTerminating means the number space cannot hold the
	// requested allocation. The raffle's range must be widened.
	ErrAllocationNonTerminating = errors.New("number space too small for allocation")
	// ErrDrawInsufficientInput is returned by a manual draw without numbers.
	ErrDrawInsufficientInput = errors.New("at least one winning number is required")
	// ErrDrawEmptyRaffle is returned when the raffle has no allocated numbers.
	ErrDrawEmptyRaffle = errors.New("raffle has no numbers to draw from")
	// ErrUnknownStrategy is returned for an unsupported draw strategy.
	ErrUnknownStrategy = errors.New("unknown draw strategy")
	// ErrNoExternalSource is returned when an external draw has no source configured.
	ErrNoExternalSource = errors.New("external draw source not configured")
)

// CouponUsageError reports why a coupon could not be used. It is advisory:
// the deposit proceeds without the coupon benefit.
type CouponUsageError struct {
	Code   string
	Status CouponStatus
}

func (e *CouponUsageError) Error() string {
	if e.Code == "" {
		return e.Status.Message()
	}
	return e.Status.Message() + ": " + e.Code
}
