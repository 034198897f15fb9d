package loki

import "time"

const (
	// DefaultLimit is applied when a caller does not set a limit.
	DefaultLimit = 1000
	// MaxLimit is the hard ceiling; callers asking for more are rejected
	// at the tool boundary before any backend call.
	MaxLimit = 5000
)

// Output modes for formatted query results.
const (
	OutputDefault = "default"
	OutputRaw     = "raw"
	OutputJSONL   = "jsonl"
)

// QueryOptions are the per-call parameters of a log query. A zero From or
// To means unset; the builders substitute their own defaults. Forward is
// a pointer so "explicitly false" can be told apart from "not set".
type QueryOptions struct {
	Query   string
	From    time.Time
	To      time.Time
	Limit   int
	Batch   int
	Output  string
	Quiet   bool
	Forward *bool
}
