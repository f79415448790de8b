package constants

import (
	"errors"
	"time"
)

// viper keys shared across the protocol commands
const (
	ConfigFolder = "CONFIG_FOLDER"
	StatePath    = "STATE_PATH"
	StreamsPath  = "STREAMS_PATH"
	SyncID       = "SYNC_ID"
)

const (
	// DefaultRetryCount bounds retries on transient HTTP failures (429, 5xx,
	// transport errors). Overridable per config via retry_count.
	DefaultRetryCount = 3

	// DefaultRetryBackoff is the initial backoff interval; doubles per attempt.
	DefaultRetryBackoff = 1 * time.Second

	// DefaultRequestTimeout applies to a single HTTP round trip.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultBaseURL is the production Tally API endpoint.
	DefaultBaseURL = "https://api.tally.so"
)

// default page sizes per paginated endpoint; the API caps submissions
// responses at 50 records regardless of the requested limit
const (
	FormsPageSize       = 500
	SubmissionsPageSize = 50
	WebhooksPageSize    = 100
)

// PrimaryKey is the identifier field on every Tally entity.
const PrimaryKey = "id"

// ErrNonRetryable marks errors that must not be retried (auth failures,
// client errors, malformed payloads). Wrap with %w and test with errors.Is.
var ErrNonRetryable = errors.New("non retryable error")
