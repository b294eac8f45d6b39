// Package mcp exposes read-only operator tools for a running gobang server
// over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the server's REST API, so the same tools work in-process on the
// /mcp endpoint and from a separate stdio process pointed at a remote
// server.
//
// Tools:
//   - lobby_stats: presence counts, live sessions and rooms, queue depth per tier
//   - list_rooms: one line per live room
//   - room_board: ASCII rendering of one room's board
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8085")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
