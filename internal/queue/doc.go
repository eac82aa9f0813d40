// Package queue provides the blocking FIFO that bridges asynchronous event
// streams (server logs, joystick samples, watched files) into a synchronous
// consumer loop. Dequeue blocks until an item arrives or the queue is
// cancelled; cancellation is one-way and wakes every blocked consumer.
package queue
