package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got none")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8085/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != "http://localhost:8085" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"rooms": 3})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/stats", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["rooms"] != float64(3) {
		t.Errorf("Expected rooms 3, got %v", response["rooms"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api/stats", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/api/stats", nil, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}
	if !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_lobbyStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/api/stats" {
			t.Errorf("Expected GET /api/stats, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(service.Stats{
			LobbyUsers: 4,
			RoomUsers:  2,
			Sessions:   7,
			Rooms:      1,
			Queues:     map[string]int{"normal": 3, "high": 0, "super": 1},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleLobbyStats(context.Background(), callTool("lobby_stats", nil))
	if err != nil {
		t.Fatalf("lobby_stats failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Lobby: 4 players", "In rooms: 2 players", "Live rooms: 1", "normal 3 waiting"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output, got: %s", want, text)
		}
	}
}

func TestClient_listRooms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]room.Info{
			{ID: 5, Status: "in_progress", Players: 2, WhiteID: 10, BlackID: 11, Moves: 9},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), callTool("list_rooms", nil))
	if err != nil {
		t.Fatalf("list_rooms failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Room 5: white=10 black=11 status=in_progress players=2 moves=9") {
		t.Errorf("Unexpected room listing: %s", text)
	}
}

func TestFormatRoomsEmpty(t *testing.T) {
	if got := formatRooms(nil); got != "No live rooms" {
		t.Errorf("Expected empty message, got %q", got)
	}
}

func TestClient_roomBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms/5/board" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"result": false, "reason": "room not found"})
			return
		}
		json.NewEncoder(w).Encode(service.BoardView{
			Room:  room.Info{ID: 5, Status: "finished", WhiteID: 10, BlackID: 11, Moves: 1},
			Board: "   0\n 0 O\n",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleRoomBoard(ctx, callTool("room_board", map[string]interface{}{"room_id": float64(5)}))
	if err != nil {
		t.Fatalf("room_board failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Room 5 (finished)") || !strings.Contains(text, " 0 O") {
		t.Errorf("Unexpected board output: %s", text)
	}

	result, _ = client.handleRoomBoard(ctx, callTool("room_board", map[string]interface{}{"room_id": float64(6)}))
	if !result.IsError {
		t.Error("Expected an error result for an unknown room")
	}
	if text := resultText(t, result); !strings.Contains(text, "room not found") {
		t.Errorf("Expected server reason in error, got: %s", text)
	}

	result, _ = client.handleRoomBoard(ctx, callTool("room_board", map[string]interface{}{}))
	if !result.IsError {
		t.Error("Expected an error result without room_id")
	}
}
