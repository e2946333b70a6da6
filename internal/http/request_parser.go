package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"financecalc/internal/finance"
)

// errBodyTooLarge is returned when a request body exceeds the configured limit.
var errBodyTooLarge = errors.New("request body too large")

// ParseCalculatorInput reads at most maxBytes of the request body and
// decodes it into calculator input.
func ParseCalculatorInput(w http.ResponseWriter, r *http.Request, maxBytes int64) (finance.Input, error) {
	if r.Body == nil {
		return finance.Input{}, nil
	}
	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return finance.DecodeInput(data)
}
