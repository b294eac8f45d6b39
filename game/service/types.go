package service

import (
	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/store"
)

// LoginResult is returned by a successful login
type LoginResult struct {
	SessionID uint64      `json:"ssid"`
	User      *store.User `json:"user"`
}

// Stats is a point-in-time view of server activity
type Stats struct {
	LobbyUsers int            `json:"lobby_users"`
	RoomUsers  int            `json:"room_users"`
	Sessions   int            `json:"sessions"`
	Rooms      int            `json:"rooms"`
	Queues     map[string]int `json:"queues"`
}

// BoardView renders one room's board for operators
type BoardView struct {
	Room  room.Info `json:"room"`
	Board string    `json:"board"`
}
