// Package bridge adapts asynchronous event sources into a BlockingQueue that
// a single consumer loop drains in arrival order.
//
// A Source pushes events through an emit callback from whatever goroutines it
// runs on. Bridge.Run starts the source in the background and runs the
// consumer loop on the calling goroutine until the source ends, Stop is
// called, or the context is cancelled. Shutting down is not an error: Run
// returns nil for it, an *UpstreamError when the source failed, and the
// handler's own error when the handler failed.
package bridge
