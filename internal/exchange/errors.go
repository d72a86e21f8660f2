package exchange

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoTicker      = errors.New("no ticker for symbol")
	ErrBadResponse   = errors.New("unexpected response shape")
	ErrMissingCreds  = errors.New("api credentials are not configured")
	ErrInvalidAmount = errors.New("order amount must be positive")
)

// APIError is a non-2xx reply from the exchange.
type APIError struct {
	Status  int
	Label   string
	Message string
}

func (e *APIError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("gate http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gate http %d %s: %s", e.Status, e.Label, e.Message)
}

// Temporary reports whether retrying later could succeed.
func (e *APIError) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}

// isClientFault keeps request-level rejections (insufficient balance, bad
// amount) from tripping the breaker.
func isClientFault(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return false
}
