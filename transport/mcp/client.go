package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Gobang Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Gobang Server - operator interface

Read-only tools for watching a running gobang (five in a row) server.

AVAILABLE TOOLS:
- lobby_stats: players in the lobby and in rooms, sessions, live rooms and match queue depth per tier
- list_rooms: every live room with its seats, status and move count
- room_board: the 15x15 board of one room (O = white, X = black)`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "lobby_stats",
		Description: "Show lobby and room occupancy, live sessions and match queue depth per tier",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleLobbyStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List every live room",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "room_board",
		Description: "Render the board of a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "number",
					"description": "Room ID as shown by list_rooms",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleRoomBoard)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs a REST call and decodes the JSON response into result
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["reason"].(string); ok && msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) handleLobbyStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiCall(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStats(&stats)), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rooms []room.Info
	if err := c.apiCall(ctx, http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRooms(rooms)), nil
}

func (c *Client) handleRoomBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	roomID, ok := args["room_id"].(float64)
	if !ok || roomID < 1 {
		return mcp.NewToolResultError("room_id must be a positive number"), nil
	}

	var view service.BoardView
	if err := c.apiCall(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/board", uint64(roomID)), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoard(&view)), nil
}

func formatStats(stats *service.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lobby: %d players\n", stats.LobbyUsers)
	fmt.Fprintf(&b, "In rooms: %d players\n", stats.RoomUsers)
	fmt.Fprintf(&b, "Sessions: %d\n", stats.Sessions)
	fmt.Fprintf(&b, "Live rooms: %d\n", stats.Rooms)

	tiers := make([]string, 0, len(stats.Queues))
	for tier := range stats.Queues {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	b.WriteString("Match queues:\n")
	for _, tier := range tiers {
		fmt.Fprintf(&b, "  %-6s %d waiting\n", tier, stats.Queues[tier])
	}
	return b.String()
}

func formatRooms(rooms []room.Info) string {
	if len(rooms) == 0 {
		return "No live rooms"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d live room(s)\n", len(rooms))
	for _, r := range rooms {
		fmt.Fprintf(&b, "Room %d: white=%d black=%d status=%s players=%d moves=%d\n",
			r.ID, r.WhiteID, r.BlackID, r.Status, r.Players, r.Moves)
	}
	return b.String()
}

func formatBoard(view *service.BoardView) string {
	r := view.Room
	return fmt.Sprintf("Room %d (%s), white=%d (O) black=%d (X), %d moves\n\n%s",
		r.ID, r.Status, r.WhiteID, r.BlackID, r.Moves, view.Board)
}
