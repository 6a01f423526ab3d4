package navigator

import "go.uber.org/atomic"

// Stats is a snapshot of navigator counters.
type Stats struct {
	Opened            int64 `json:"opened"`
	Closed            int64 `json:"closed"`
	Replaced          int64 `json:"replaced"`
	Rejected          int64 `json:"rejected"`
	Cancelled         int64 `json:"cancelled"`
	FailedTransitions int64 `json:"failedTransitions"`
}

type counters struct {
	opened    atomic.Int64
	closed    atomic.Int64
	replaced  atomic.Int64
	rejected  atomic.Int64
	cancelled atomic.Int64
	failed    atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Opened:            c.opened.Load(),
		Closed:            c.closed.Load(),
		Replaced:          c.replaced.Load(),
		Rejected:          c.rejected.Load(),
		Cancelled:         c.cancelled.Load(),
		FailedTransitions: c.failed.Load(),
	}
}
