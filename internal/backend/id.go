package backend

import "github.com/oklog/ulid/v2"

// NewRequestID returns the X-Request-ID attached to every backend call. The
// backend echoes it into its own logs, so one action can be followed from the
// client's backend_call line to the server's handling of it. ULIDs sort by
// time, which keeps one player's calls ordered in a merged log.
func NewRequestID() string {
	return ulid.Make().String()
}
