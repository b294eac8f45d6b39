package room

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/message"
	"github.com/wricardo/gobang/game/presence"
)

// Status is the lifecycle state of a room
type Status int

const (
	InProgress Status = iota
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "finished"
	}
	return "in_progress"
}

// Row and column sent with a forced outcome that did not come from a move.
const forfeitPosition = -1

// Failure and outcome reasons sent to clients.
const (
	ReasonRoomMismatch    = "room id does not match"
	ReasonUnknownOp       = "unknown request type"
	ReasonInvalidPosition = "invalid position"
	ReasonOccupied        = "position occupied"
	ReasonNotSeated       = "user is not a player in this room"
	ReasonGameOver        = "game is already over"
	ReasonBannedWord      = "message contains banned words"
	ReasonFiveInARow      = "five in a row, you win"
	ReasonOpponentLeft    = "opponent disconnected, you win"
	ReasonOpponentOffline = "opponent is offline, you win by forfeit"
)

// Presence is the view of the presence tracker a room needs
type Presence interface {
	IsPresent(ctx presence.Context, uid uint64) bool
	Connection(ctx presence.Context, uid uint64) (presence.Conn, bool)
}

// Results records finished games in the user store
type Results interface {
	RecordWin(ctx context.Context, uid uint64) error
	RecordLoss(ctx context.Context, uid uint64) error
}

// Deps are the collaborators shared by every room. They are owned by the
// server and outlive all rooms.
type Deps struct {
	Presence    Presence
	Results     Results
	BannedWords []string
	Logger      *zap.Logger
}

// Room is one match between a white and a black seat.
type Room struct {
	id    uint64
	white uint64
	black uint64
	deps  Deps
	log   *zap.Logger

	mu        sync.Mutex
	status    Status
	players   int
	whiteLeft bool
	blackLeft bool
	board     Board
}

// Info is a point-in-time summary of a room
type Info struct {
	ID      uint64 `json:"room_id"`
	Status  string `json:"status"`
	Players int    `json:"players"`
	WhiteID uint64 `json:"white_id"`
	BlackID uint64 `json:"black_id"`
	Moves   int    `json:"moves"`
}

// newRoom seats white and black. Only the Manager creates rooms.
func newRoom(id, white, black uint64, deps Deps) *Room {
	return &Room{
		id:      id,
		white:   white,
		black:   black,
		deps:    deps,
		log:     deps.Logger.With(zap.Uint64("room_id", id)),
		status:  InProgress,
		players: 2,
	}
}

// ID returns the room identifier
func (r *Room) ID() uint64 { return r.id }

// WhiteID returns the user seated as white
func (r *Room) WhiteID() uint64 { return r.white }

// BlackID returns the user seated as black
func (r *Room) BlackID() uint64 { return r.black }

// Status returns the current room status
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Players returns the number of seats still occupied
func (r *Room) Players() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players
}

// Info returns a summary of the room
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Info{
		ID:      r.id,
		Status:  r.status.String(),
		Players: r.players,
		WhiteID: r.white,
		BlackID: r.black,
		Moves:   r.board.Moves(),
	}
}

// Board returns a copy of the board
func (r *Room) Board() Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

// opponent returns the other seat's user, or 0 if uid holds no seat.
func (r *Room) opponent(uid uint64) uint64 {
	switch uid {
	case r.white:
		return r.black
	case r.black:
		return r.white
	}
	return 0
}

// HandleRequest dispatches a room action and broadcasts its result to both
// seats. The broadcast response is also returned.
func (r *Room) HandleRequest(ctx context.Context, req *message.Request) *message.Response {
	var resp *message.Response

	switch {
	case req.RoomID != r.id:
		resp = message.Failure(req.OpType, ReasonRoomMismatch)
	case req.OpType == message.OpPutChess:
		resp = r.putChess(ctx, req)
	case req.OpType == message.OpChat:
		resp = r.chat(req)
	default:
		resp = message.Failure(req.OpType, ReasonUnknownOp)
	}

	r.Broadcast(resp)
	return resp
}

func (r *Room) putChess(ctx context.Context, req *message.Request) *message.Response {
	resp := &message.Response{
		OpType: message.OpPutChess,
		RoomID: r.id,
		UID:    req.UID,
	}
	resp.Row, resp.Col = message.Position(req.Row, req.Col)

	// Presence is read before locking so no call leaves the room under r.mu.
	seated := seatPresence{
		white: r.deps.Presence.IsPresent(presence.Room, r.white),
		black: r.deps.Presence.IsPresent(presence.Room, r.black),
	}

	r.mu.Lock()
	winner, reason := r.placeLocked(req, seated)
	finished := winner != 0 && r.status == InProgress
	if finished {
		r.status = Finished
	}
	r.mu.Unlock()

	if reason != "" && winner == 0 {
		resp.Reason = reason
		return resp
	}

	resp.Result = true
	resp.Winner = winner
	resp.Reason = reason
	if finished {
		r.log.Info("game finished", zap.Uint64("winner", winner))
		r.record(ctx, winner)
	}
	return resp
}

// seatPresence records which seats were connected to the room context.
type seatPresence struct {
	white, black bool
}

// placeLocked validates and applies a move. It returns the winner, if any,
// and a reason that is either a rejection (winner == 0) or the win reason.
func (r *Room) placeLocked(req *message.Request, seated seatPresence) (uint64, string) {
	if r.status == Finished {
		return 0, ReasonGameOver
	}

	// A missing seat forfeits before the move itself is looked at.
	if !seated.white {
		return r.black, ReasonOpponentOffline
	}
	if !seated.black {
		return r.white, ReasonOpponentOffline
	}

	var stone Stone
	switch req.UID {
	case r.white:
		stone = White
	case r.black:
		stone = Black
	default:
		return 0, ReasonNotSeated
	}

	if err := r.board.Place(req.Row, req.Col, stone); err != nil {
		if errors.Is(err, ErrOccupied) {
			return 0, ReasonOccupied
		}
		return 0, ReasonInvalidPosition
	}

	if r.board.IsFive(req.Row, req.Col) {
		return req.UID, ReasonFiveInARow
	}
	return 0, ""
}

func (r *Room) chat(req *message.Request) *message.Response {
	for _, word := range r.deps.BannedWords {
		if word != "" && strings.Contains(req.Message, word) {
			resp := message.Failure(message.OpChat, ReasonBannedWord)
			resp.RoomID = r.id
			resp.UID = req.UID
			return resp
		}
	}
	resp := message.Success(message.OpChat)
	resp.RoomID = r.id
	resp.UID = req.UID
	resp.Message = req.Message
	return resp
}

// Exit removes uid from its seat. Leaving a game in progress hands the win
// to the other seat. It returns the number of seats still occupied.
func (r *Room) Exit(ctx context.Context, uid uint64) int {
	var resp *message.Response

	r.mu.Lock()
	switch {
	case uid == r.white && !r.whiteLeft:
		r.whiteLeft = true
	case uid == r.black && !r.blackLeft:
		r.blackLeft = true
	default:
		remaining := r.players
		r.mu.Unlock()
		return remaining
	}

	winner := r.opponent(uid)
	if r.status == InProgress {
		r.status = Finished
		resp = &message.Response{
			OpType: message.OpPutChess,
			Result: true,
			Reason: ReasonOpponentLeft,
			RoomID: r.id,
			UID:    uid,
			Winner: winner,
		}
		resp.Row, resp.Col = message.Position(forfeitPosition, forfeitPosition)
	}
	r.players--
	remaining := r.players
	r.mu.Unlock()

	if resp != nil {
		r.log.Info("player left a game in progress", zap.Uint64("uid", uid), zap.Uint64("winner", winner))
		r.record(ctx, winner)
		r.Broadcast(resp)
	}
	return remaining
}

// record credits the winner and debits the other seat.
func (r *Room) record(ctx context.Context, winner uint64) {
	loser := r.opponent(winner)
	if err := r.deps.Results.RecordWin(ctx, winner); err != nil {
		r.log.Error("failed to record win", zap.Uint64("uid", winner), zap.Error(err))
	}
	if err := r.deps.Results.RecordLoss(ctx, loser); err != nil {
		r.log.Error("failed to record loss", zap.Uint64("uid", loser), zap.Error(err))
	}
}

// Broadcast sends resp to both seats' room connections. A seat without a
// connection is skipped.
func (r *Room) Broadcast(resp *message.Response) {
	for _, uid := range [2]uint64{r.white, r.black} {
		conn, ok := r.deps.Presence.Connection(presence.Room, uid)
		if !ok {
			r.log.Debug("no room connection for player", zap.Uint64("uid", uid))
			continue
		}
		if err := conn.Send(resp); err != nil {
			r.log.Warn("failed to send to player", zap.Uint64("uid", uid), zap.Error(err))
		}
	}
}
