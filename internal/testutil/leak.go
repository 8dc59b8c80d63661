package testutil

import "go.uber.org/goleak"

// LeakOptions ignores every goroutine already running when it is called.
// Call it from TestMain before any test runs: the socket.io client packages
// start long-lived goroutines from their init functions.
func LeakOptions() []goleak.Option {
	return []goleak.Option{goleak.IgnoreCurrent()}
}
