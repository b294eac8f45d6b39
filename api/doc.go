// Package api provides the HTTP surface of the gobang server.
//
// Endpoints:
//
// Accounts:
//   - POST /reg - Register {username, password}
//   - POST /login - Log in; sets the SSID session cookie
//   - GET /info - User record of the logged-in session
//
// Long-lived connections (WebSocket):
//   - /hall - Lobby connection: match_start, match_stop, match_success
//   - /room - Room connection: put_chess, chat
//
// Operator views:
//   - GET /api/stats - Presence counts, sessions, rooms, queue depth
//   - GET /api/rooms - Live rooms
//   - GET /api/rooms/{id}/board - Rendered board of one room
//   - GET /health - Liveness probe
//   - POST /mcp - MCP JSON-RPC endpoint for the operator tools
//
// Everything else is served from the web root, with / mapped to login.html.
//
// Account endpoints answer with {"result": bool, "reason": string}. Failures
// caused by the client use status 400; the reason is meant to be shown to
// the player.
package api
