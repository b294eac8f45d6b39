// Package room implements gobang matches and the registry that owns them.
//
// A Room seats two players, white and black, on a 15x15 board. Players place
// stones through HandleRequest; the first line of five or more stones of one
// color along any axis wins. A seat that is no longer connected to the room
// loses by forfeit on the next move, and a seat that leaves a game in
// progress hands the win to the opponent. Every outcome is recorded once.
//
// Manager creates rooms for matched lobby players, looks them up by room ID
// or by user ID, and destroys a room when both seats have left.
//
// Concurrency:
//
// Each room serializes its own actions with a room-local mutex, so the two
// seats may act from different goroutines. The Manager guards its maps with
// a single mutex and never holds it while calling into a Room or the
// presence tracker.
package room
