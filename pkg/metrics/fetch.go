package metrics

import "sync/atomic"

// FetchCounters tracks the outcome of prediction requests issued by the controller.
type FetchCounters struct {
	issued    atomic.Int64
	applied   atomic.Int64
	failed    atomic.Int64
	discarded atomic.Int64
}

// FetchSnapshot is a point-in-time copy of FetchCounters.
type FetchSnapshot struct {
	Issued    int64 `json:"issued"`
	Applied   int64 `json:"applied"`
	Failed    int64 `json:"failed"`
	Discarded int64 `json:"discarded"`
}

func (c *FetchCounters) Issued()    { c.issued.Add(1) }
func (c *FetchCounters) Applied()   { c.applied.Add(1) }
func (c *FetchCounters) Failed()    { c.failed.Add(1) }
func (c *FetchCounters) Discarded() { c.discarded.Add(1) }

// Snapshot reads all counters.
func (c *FetchCounters) Snapshot() FetchSnapshot {
	return FetchSnapshot{
		Issued:    c.issued.Load(),
		Applied:   c.applied.Load(),
		Failed:    c.failed.Load(),
		Discarded: c.discarded.Load(),
	}
}

// InFlight reports requests that have been issued but not settled yet.
func (s FetchSnapshot) InFlight() int64 {
	return s.Issued - s.Applied - s.Failed - s.Discarded
}
