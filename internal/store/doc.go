// Package store holds the client-side notification state shared by the
// realtime engine and the notification centre.
//
// The store keeps the notification list newest-first, the unread counter, the
// selection set, the active filter, the current preferences and pending
// action markers. Every mutation adjusts the unread counter inside the same
// critical section as the list change, and the counter never goes below
// zero.
//
// Readers receive deep copies. Observers registered with Subscribe are called
// after the lock is released, in the goroutine that made the change.
package store
