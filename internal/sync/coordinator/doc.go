// Package coordinator schedules background registry refreshes.
//
// The Coordinator wraps a sync.Manager in a ticker loop: every interval,
// with a small random jitter so multiple resolver instances do not hit the
// upstream registry in lockstep, it runs one refresh cycle. Refresh errors
// are logged and the loop keeps running; the next tick tries again and the
// previously published state stays live in the meantime.
//
// The coordinator never runs an initial refresh of its own. Server startup
// performs the first refresh synchronously before the coordinator starts,
// so by the time Start is called there is already published state to serve.
//
// # Lifecycle
//
// Start blocks until the passed context is cancelled or Stop is called, so
// it is expected to run in its own goroutine. Stop cancels the loop and
// waits for it to finish, including any refresh in flight.
package coordinator
