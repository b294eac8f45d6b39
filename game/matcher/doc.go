// Package matcher pairs lobby players of similar skill.
//
// Players are bucketed into three tiers by score: normal (below the high
// threshold), high, and super (at or above the super threshold). Each tier
// has a FIFO Queue drained by one worker goroutine. A worker pops the two
// oldest users, checks that both are still in the lobby, and asks the room
// registry for a room with the first as white and the second as black. Both
// players are then sent a match_success message on their lobby connection.
//
// Users who left the lobby are dropped; the remaining candidate is requeued
// at the back of its tier. A failed room creation requeues both and the
// worker pauses with an exponential backoff before trying again.
package matcher
