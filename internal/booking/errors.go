package booking

import (
	"errors"
	"fmt"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// ErrorKind classifies a recoverable rule violation.  Callers re-prompt
// the user with corrected input; none of these are fatal.
type ErrorKind string

const (
	KindPastStartTime          ErrorKind = "PastStartTime"
	KindInsufficientLeadTime   ErrorKind = "InsufficientLeadTime"
	KindInvertedInterval       ErrorKind = "InvertedInterval"
	KindDurationTooLong        ErrorKind = "DurationTooLong"
	KindVisitorCountOutOfRange ErrorKind = "VisitorCountOutOfRange"
	KindAdminRestrictedType    ErrorKind = "AdminRestrictedType"
	KindOutsideOperatingHours  ErrorKind = "OutsideOperatingHours"
	KindAmenityInactive        ErrorKind = "AmenityInactive"

	KindInvalidTransition   ErrorKind = "InvalidTransition"
	KindMissingDenialReason ErrorKind = "MissingDenialReason"
	KindForbidden           ErrorKind = "Forbidden"
)

// Sentinels matched by TransitionError.Is.
var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrMissingDenialReason = errors.New("denial reason is required")
	ErrForbidden           = errors.New("action not permitted for actor")
)

// RuleError is the error form of a failed ValidationResult.
type RuleError struct {
	Kind    ErrorKind
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// TransitionError reports a rejected lifecycle transition.  The
// reservation is left untouched when one is returned.
type TransitionError struct {
	Kind   ErrorKind
	From   model.Status
	Action Action
}

func (e *TransitionError) Error() string {
	switch e.Kind {
	case KindMissingDenialReason:
		return "a denial reason is required to deny a reservation"
	case KindForbidden:
		return fmt.Sprintf("actor may not %s this reservation", e.Action)
	}
	return fmt.Sprintf("cannot %s a %s reservation", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	switch target {
	case ErrInvalidTransition:
		return e.Kind == KindInvalidTransition
	case ErrMissingDenialReason:
		return e.Kind == KindMissingDenialReason
	case ErrForbidden:
		return e.Kind == KindForbidden
	}
	return false
}
