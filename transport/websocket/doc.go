// Package websocket provides the long-lived hall and room connections of
// the gobang server.
//
// Each upgraded connection becomes a Client with a read pump and a write
// pump. The read pump decodes JSON requests and hands them to the game
// service; the write pump delivers queued responses and keeps the peer alive
// with pings. Client implements presence.Conn, so rooms and the matcher push
// messages to players through it without knowing about the wire.
//
// Connections identify their user through the SSID cookie set at login. A
// connection without a valid session, or for a user who is already
// connected, receives a failed hall_ready or room_ready message and is
// closed.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	handler := websocket.NewHandler(hub, gameService, logger)
//	router.HandleFunc("/hall", handler.ServeHall)
//	router.HandleFunc("/room", handler.ServeRoom)
//
// The Hub tracks every open client and closes them all when its context is
// done.
package websocket
