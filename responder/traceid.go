package responder

import "github.com/oklog/ulid/v2"

// NewTraceID returns a ULID. Trace ids sort by creation time, so the log
// records of a fault can be ordered without their timestamps.
func NewTraceID() string {
	return ulid.Make().String()
}
