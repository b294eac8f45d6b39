// Package session provides login session management for the gobang server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Sequential session ID allocation (IDs are never reused)
//   - Per-session expiry timers that can be re-armed or made permanent
//
// Core Types:
//
// Manager is the session registry that owns every Session. Other components
// hold only the numeric session ID and look the session up when needed.
//
// Expiry:
//
// A session created by login is temporary: it is removed when its timer
// fires. While the user holds a hall or room connection the session is made
// permanent with SetExpiry(id, Forever), and when the connection closes the
// timeout is restored. SetExpiry handles four cases depending on whether a
// timer is currently armed and whether the requested duration is Forever:
//
//	no timer, Forever    -> nothing to do
//	no timer, finite     -> arm a timer that removes the session
//	timer,    Forever    -> detach, cancel, schedule reinsert
//	timer,    finite     -> detach, cancel, schedule reinsert, arm a new timer
//
// The timer is always detached from the session before it is cancelled, so a
// callback that still runs after cancellation finds a stale generation and
// leaves the session alone.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess := manager.Create(userID, session.Authenticated)
//	manager.SetExpiry(sess.ID, 30*time.Second)
//
//	// hall connection established
//	manager.SetExpiry(sess.ID, session.Forever)
package session
