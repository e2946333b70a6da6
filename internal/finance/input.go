package finance

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// MaxYears bounds every horizon expressed in years.
	MaxYears = 150
	// MaxAge bounds ages accepted by the retirement calculator.
	MaxAge = 150
	// MaxLoanMonths caps period-stepping simulations.
	MaxLoanMonths = 600
	// PayoffThreshold is the balance below which a debt counts as settled.
	PayoffThreshold = 0.01
	// MaxDebts bounds the number of debts in a payoff comparison.
	MaxDebts = 50
)

// Input is a decoded request body keyed by field name. Values may be JSON
// numbers, numeric strings, booleans, lists or nested objects; typed access
// goes through the accessor methods which produce ValidationErrors.
type Input map[string]any

// DecodeInput parses a request body. An empty body is treated as an empty
// object; anything other than a JSON object is rejected.
func DecodeInput(data []byte) (Input, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Input{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, invalid("", ReasonInvalidBody, "Request body must be a valid JSON object")
	}
	if dec.More() {
		return nil, invalid("", ReasonInvalidBody, "Request body must contain a single JSON object")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid("", ReasonInvalidBody, "Request body must be a JSON object")
	}
	return Input(obj), nil
}

// Float returns field as a finite number, or def when absent or null.
func (in Input) Float(field string, def float64) (float64, error) {
	raw, ok := in[field]
	if !ok || raw == nil {
		return def, nil
	}

	var (
		v   float64
		err error
	)
	switch x := raw.(type) {
	case json.Number:
		v, err = strconv.ParseFloat(x.String(), 64)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return def, nil
		}
		v, err = strconv.ParseFloat(s, 64)
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	default:
		return 0, invalid(field, ReasonNotNumeric, "%s must be a number", field)
	}
	if err != nil {
		return 0, invalid(field, ReasonNotNumeric, "%s must be a number", field)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(field, ReasonNotNumeric, "%s must be a finite number", field)
	}
	return v, nil
}

// Int returns field as a whole number, or def when absent or null.
// Numbers with a fractional part are rejected rather than truncated.
func (in Input) Int(field string, def int) (int, error) {
	v, err := in.Float(field, float64(def))
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, invalid(field, ReasonNotInteger, "%s must be a whole number", field)
	}
	if math.Abs(v) > 1e9 {
		return 0, invalid(field, ReasonOutOfRange, "%s is out of range", field)
	}
	return int(v), nil
}

// Bool returns field as a boolean, or def when absent or null.
func (in Input) Bool(field string, def bool) (bool, error) {
	raw, ok := in[field]
	if !ok || raw == nil {
		return def, nil
	}
	switch x := raw.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0", "":
			return false, nil
		}
	case json.Number:
		switch x.String() {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
	}
	return false, invalid(field, ReasonNotBoolean, "%s must be true or false", field)
}

// String returns field as text, or def when absent, null or blank.
func (in Input) String(field, def string) string {
	raw, ok := in[field]
	if !ok || raw == nil {
		return def
	}
	switch x := raw.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return s
		}
		return def
	case json.Number:
		return x.String()
	}
	return def
}

// List returns field as a list of objects. An absent field yields nil.
func (in Input) List(field string) ([]Input, error) {
	raw, ok := in[field]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, invalid(field, ReasonNotList, "%s must be a list", field)
	}
	out := make([]Input, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalid(field, ReasonNotList, "%s must be a list of objects", field)
		}
		out = append(out, Input(obj))
	}
	return out, nil
}

func requireNonNegative(field string, v float64) error {
	if v < 0 {
		return invalid(field, ReasonOutOfRange, "%s must not be negative", field)
	}
	return nil
}

func requirePositive(field string, v float64) error {
	if v <= 0 {
		return invalid(field, ReasonOutOfRange, "%s must be greater than 0", field)
	}
	return nil
}

func requireYears(field string, v int) error {
	if v < 0 || v > MaxYears {
		return invalid(field, ReasonOutOfRange, "%s must be between 0 and %d", field, MaxYears)
	}
	return nil
}
