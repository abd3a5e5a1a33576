package relay

import "errors"

// Failure kinds reported by FetchProfile. Attempt errors wrap one of these with
// the relay URL, so match them with errors.Is.
var (
	ErrConnection     = errors.New("relay connection failed")
	ErrTimeout        = errors.New("relay timed out")
	ErrNoEventFound   = errors.New("no profile event found")
	ErrMalformedEvent = errors.New("malformed profile event")
)
