package groupme

import "sync/atomic"

// Package-level fetch counters, read by the status server's snapshot.
var (
	apiRequests        atomic.Int64
	apiMessagesFetched atomic.Int64
)

// Stats reports how many API requests have been issued and how many
// raw messages have been fetched so far in this process.
func Stats() (requests, messages int64) {
	return apiRequests.Load(), apiMessagesFetched.Load()
}
