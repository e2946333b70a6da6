package finance

import (
	"errors"
	"fmt"
)

// Reason classifies why a calculation was rejected.
type Reason string

const (
	ReasonInvalidBody        Reason = "invalid_body"
	ReasonMissing            Reason = "missing"
	ReasonNotNumeric         Reason = "not_numeric"
	ReasonNotInteger         Reason = "not_integer"
	ReasonNotBoolean         Reason = "not_boolean"
	ReasonNotList            Reason = "not_list"
	ReasonOutOfRange         Reason = "out_of_range"
	ReasonInfeasible         Reason = "infeasible"
	ReasonInvalidCombination Reason = "invalid_combination"
	ReasonNonFinite          Reason = "non_finite"
)

// ErrUnknownCalculator is returned when no calculator is registered under a name.
var ErrUnknownCalculator = errors.New("unknown calculator")

// ValidationError reports input that cannot be calculated: a field that is
// not a number, a value out of range, or an infeasible combination.
type ValidationError struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ComputationError reports a calculation that ran but produced a value that
// cannot be represented, such as an overflow to infinity.
type ComputationError struct {
	Calculator string
	Reason     Reason
	Message    string
}

func (e *ComputationError) Error() string { return e.Message }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsComputation reports whether err is, or wraps, a *ComputationError.
func IsComputation(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}

// ReasonOf extracts the structured reason from a calculation error.
// It returns an empty Reason for any other error.
func ReasonOf(err error) Reason {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	var ce *ComputationError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

func invalid(field string, reason Reason, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// checkFinite guards results against NaN and infinities.
func checkFinite(calculator string, values ...float64) error {
	if isFinite(values...) {
		return nil
	}
	return &ComputationError{
		Calculator: calculator,
		Reason:     ReasonNonFinite,
		Message:    "Calculation overflowed: inputs produce a result too large to represent",
	}
}
