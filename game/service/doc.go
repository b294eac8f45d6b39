// Package service provides the gobang server logic that sits between the
// transports and the game core.
//
// GameService covers three areas:
//   - Accounts: register, login and user info lookups over the user store.
//     Login creates an authenticated session that expires after the
//     configured timeout unless refreshed.
//   - Hall connections: a logged-in user opens one lobby connection, asks to
//     start or stop matchmaking, and is told when a match is found.
//   - Room connections: after a match the user opens a room connection, and
//     every message is dispatched to the user's room.
//
// While a user holds a hall or room connection its session never expires.
// Closing the connection restores the timeout. A user may hold at most one
// connection across both contexts; a second one is rejected as a duplicate
// login.
//
// Usage:
//
//	svc := service.NewGameService(service.Deps{
//		Users:          users,
//		Sessions:       session.NewManager(logger),
//		Presence:       tracker,
//		Rooms:          rooms,
//		Matcher:        matchmaker,
//		SessionTimeout: 30 * time.Second,
//		Logger:         logger,
//	})
//
//	res, err := svc.Login(ctx, "alice", "secret")
//	uid, err := svc.OpenHall(ctx, res.SessionID, conn)
package service
