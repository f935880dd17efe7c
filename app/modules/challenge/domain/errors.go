package challengedomain

import (
	"fmt"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// CapExceededError is returned when a reviewer awards more than the
// per-member internal cap. It is a validation error.
type CapExceededError struct {
	Awarded float64
	Cap     float64
}

func (e *CapExceededError) reason() string {
	return fmt.Sprintf("%g points exceeds the per-member cap of %.2f for this challenge", e.Awarded, e.Cap)
}

func (e *CapExceededError) Error() string        { return "cap exceeded: " + e.reason() }
func (e *CapExceededError) Kind() leagueerr.Kind { return leagueerr.KindValidation }
func (e *CapExceededError) UserReason() string   { return e.reason() }

func (e *CapExceededError) Unwrap() error {
	return &leagueerr.ValidationError{Field: "awarded_points", Reason: e.reason()}
}
