// Package engine folds realtime notification events into the client store.
//
// Frames arrive from the socket goroutine through HandleFrame. Each frame is
// decoded, optionally journaled, and appended to an unbounded FIFO. A single
// Run goroutine drains the FIFO and applies events to the store one at a
// time, so events take effect strictly in socket-delivery order and the
// store's unread counter is never raced by two realtime writers.
//
// Applying a new notification also surfaces it: preference resolution picks
// the channels, in_app goes to the toast queue (or the batch coalescer when
// batching is on) and push goes to the desktop surface.
//
// Malformed frames and unknown event tags are logged and dropped. They never
// stop the loop or close the connection.
package engine
