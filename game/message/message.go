// Package message defines the structured objects exchanged between the
// transport layer and the game core. The core never encodes bytes itself;
// connection handles receive these values and serialize them on the wire.
package message

// Operation tags carried in the optype field.
const (
	OpHallReady    = "hall_ready"
	OpRoomReady    = "room_ready"
	OpMatchStart   = "match_start"
	OpMatchStop    = "match_stop"
	OpMatchSuccess = "match_success"
	OpPutChess     = "put_chess"
	OpChat         = "chat"
	OpUnknown      = "unknown"
)

// Request is a decoded inbound message from a hall or room connection.
type Request struct {
	OpType  string `json:"optype"`
	RoomID  uint64 `json:"room_id,omitempty"`
	UID     uint64 `json:"uid,omitempty"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Message string `json:"message,omitempty"`
}

// Response is an outbound message. Row and Col are pointers because 0 is a
// valid board coordinate and must still be serialized on move results.
type Response struct {
	OpType  string `json:"optype"`
	Result  bool   `json:"result"`
	Reason  string `json:"reason,omitempty"`
	RoomID  uint64 `json:"room_id,omitempty"`
	UID     uint64 `json:"uid,omitempty"`
	Row     *int   `json:"row,omitempty"`
	Col     *int   `json:"col,omitempty"`
	Winner  uint64 `json:"winner"`
	Message string `json:"message,omitempty"`
	WhiteID uint64 `json:"white_id,omitempty"`
	BlackID uint64 `json:"black_id,omitempty"`
}

// Failure builds a rejected response for the given operation.
func Failure(opType, reason string) *Response {
	return &Response{OpType: opType, Result: false, Reason: reason}
}

// Success builds an accepted response for the given operation.
func Success(opType string) *Response {
	return &Response{OpType: opType, Result: true}
}

// Position returns pointers suitable for Response.Row and Response.Col.
func Position(row, col int) (*int, *int) {
	return &row, &col
}
