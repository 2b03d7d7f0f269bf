package gateway

import (
	"errors"
	"fmt"
)

// ErrServiceSleeping marks the cold-start condition: the hosted backend
// scales to zero after inactivity and answers 502 while it spins back up.
// The UI special-cases this error, so it must stay distinguishable from a
// generic HTTP failure.
var ErrServiceSleeping = errors.New("the research backend is waking up from sleep, please retry in about 30 seconds")

// HTTPError is any non-2xx response other than the 502 sleeping case.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError covers network unreachable and timeout. A timed-out request
// is indistinguishable from a dead network from the caller's point of view.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
