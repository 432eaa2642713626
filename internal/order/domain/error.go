package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("order_not_found")
	ErrProjectNotFound = errors.New("project_not_found")
	ErrProjectInactive = errors.New("project_inactive")
	ErrLineNotFound    = errors.New("line_not_found")
	ErrEmptyOrder      = errors.New("empty_order")
	ErrInvalidLine     = errors.New("invalid_line")
	ErrForbidden       = errors.New("forbidden")

	// ErrIllegalTransition is the errors.Is target for TransitionError.
	ErrIllegalTransition = errors.New("illegal_transition")
)

// TransitionError names the state the order would need to be in for
// the attempted action.
type TransitionError struct {
	Action   string
	Current  Status
	Required string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal_transition: %s requires status %s, order is %s", e.Action, e.Required, e.Current)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

func newTransitionError(action string, current Status, required string) error {
	return &TransitionError{Action: action, Current: current, Required: required}
}

func ErrSubmitRequiresDraft(current Status) error {
	return newTransitionError("submit", current, string(StatusDraft))
}

func ErrValidateRequiresSubmitted(current Status) error {
	return newTransitionError("validate", current, string(StatusSubmitted))
}

func ErrRejectRequiresSubmitted(current Status) error {
	return newTransitionError("reject", current, string(StatusSubmitted))
}

func ErrPDFRequiresValidated(current Status) error {
	return newTransitionError("generate_pdf", current, string(StatusValidated))
}

func ErrShareRequiresValidated(current Status) error {
	return newTransitionError("share", current, string(StatusValidated)+"|"+string(StatusPDFGenerated)+"|"+string(StatusShared))
}
