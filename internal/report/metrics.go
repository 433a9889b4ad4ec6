package report

import "sync/atomic"

var (
	pagesWritten     atomic.Int64
	messagesRendered atomic.Int64
)

// Stats returns running totals for progress reporting.
func Stats() (pages, messages int64) {
	return pagesWritten.Load(), messagesRendered.Load()
}
