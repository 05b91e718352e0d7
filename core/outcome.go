package core

// Outcome describes how a fetch was satisfied.
type Outcome string

const (
	// OutcomeMiss means no usable cache entry existed and the body came from
	// an unconditional fetch.
	OutcomeMiss Outcome = "miss"
	// OutcomeRevalidated means the origin answered 304 and the stored body
	// was served.
	OutcomeRevalidated Outcome = "revalidated"
	// OutcomeChanged means the origin answered 2xx on a conditional request
	// and the stored body was replaced.
	OutcomeChanged Outcome = "changed"
	// OutcomeStale means the origin was unreachable and the caller opted
	// into the stored body with AllowStale.
	OutcomeStale Outcome = "stale"
	// OutcomeForwarded means a non-2xx, non-304 origin status was passed
	// through without touching the cache.
	OutcomeForwarded Outcome = "forwarded"
)
