package websocket

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/message"
	"github.com/wricardo/gobang/game/service"
)

// SessionCookie carries the session ID issued at login.
const SessionCookie = "SSID"

// Reasons sent before a connection is admitted.
const (
	ReasonNoCookie   = "no session cookie, please log in again"
	ReasonBadRequest = "invalid request"
)

// Handler serves the hall and room WebSocket endpoints
type Handler struct {
	hub    *Hub
	svc    service.GameService
	logger *zap.Logger
}

// NewHandler creates a handler bound to hub and svc
func NewHandler(hub *Hub, svc service.GameService, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, svc: svc, logger: logger.Named("websocket")}
}

// channel is one of the two connection kinds
type channel struct {
	name  string
	ready string
	open  func(ctx context.Context, ssid uint64, c *Client) (uint64, error)
	msg   func(ctx context.Context, uid uint64, req *message.Request) *message.Response
	close func(ctx context.Context, ssid, uid uint64)
}

// ServeHall upgrades a lobby connection
func (h *Handler) ServeHall(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, channel{
		name:  "hall",
		ready: message.OpHallReady,
		open: func(ctx context.Context, ssid uint64, c *Client) (uint64, error) {
			return h.svc.OpenHall(ctx, ssid, c)
		},
		msg:   h.svc.HallMessage,
		close: h.svc.CloseHall,
	})
}

// ServeRoom upgrades a room connection
func (h *Handler) ServeRoom(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, channel{
		name:  "room",
		ready: message.OpRoomReady,
		open: func(ctx context.Context, ssid uint64, c *Client) (uint64, error) {
			return h.svc.OpenRoom(ctx, ssid, c)
		},
		msg:   h.svc.RoomMessage,
		close: h.svc.CloseRoom,
	})
}

// SessionID reads the session cookie of r
func SessionID(r *http.Request) (uint64, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(cookie.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, ch channel) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("channel", ch.name), zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, h.logger.With(zap.String("channel", ch.name)))
	if !h.hub.add(client) {
		conn.Close()
		return
	}
	go client.writePump()

	// The request context ends when this handler returns.
	ctx := context.WithoutCancel(r.Context())

	ssid, ok := SessionID(r)
	if !ok {
		client.Send(message.Failure(ch.ready, ReasonNoCookie))
		h.hub.remove(client)
		return
	}

	uid, err := ch.open(ctx, ssid, client)
	if err != nil {
		client.logger.Info("connection rejected", zap.Uint64("ssid", ssid), zap.Error(err))
		h.hub.remove(client)
		return
	}
	h.logger.Debug("connection admitted", zap.String("channel", ch.name), zap.String("conn_id", client.ID()), zap.Uint64("uid", uid))

	go func() {
		defer func() {
			ch.close(ctx, ssid, uid)
			h.hub.remove(client)
		}()
		client.readPump(func(req *message.Request) {
			if resp := ch.msg(ctx, uid, req); resp != nil {
				if err := client.Send(resp); err != nil {
					h.logger.Debug("reply dropped", zap.Uint64("uid", uid), zap.Error(err))
				}
			}
		})
	}()
}
