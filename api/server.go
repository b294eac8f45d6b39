package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/service"
	"github.com/wricardo/gobang/store"
	"github.com/wricardo/gobang/transport/websocket"
)

// Reasons returned by the account endpoints.
const (
	ReasonMissingCredentials = "username/password required"
	ReasonUserTaken          = "username already taken"
	ReasonBadCredentials     = "incorrect username or password"
	ReasonRegistered         = "registered"
	ReasonLoginRequired      = "please log in again"
	ReasonInvalidBody        = "invalid request body"
	ReasonInternal           = "internal server error"
)

// LoginPage is served for the site root.
const LoginPage = "login.html"

// Options configure optional parts of the server
type Options struct {
	// WebRoot holds the static pages. Empty disables static files.
	WebRoot string
	// MCP is exposed on POST /mcp when set.
	MCP    *server.MCPServer
	Logger *zap.Logger
}

// Server represents the HTTP API server
type Server struct {
	service service.GameService
	ws      *websocket.Handler
	opts    Options
	logger  *zap.Logger
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, ws *websocket.Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		ws:      ws,
		opts:    opts,
		logger:  logger.Named("api"),
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Accounts
	s.router.HandleFunc("/reg", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/login", s.handleLogin).Methods("POST")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Long-lived connections
	if s.ws != nil {
		s.router.HandleFunc("/hall", s.ws.ServeHall)
		s.router.HandleFunc("/room", s.ws.ServeRoom)
	}

	// Operator views
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}/board", s.handleRoomBoard).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.opts.MCP != nil {
		s.router.HandleFunc("/mcp", s.handleMCP).Methods("POST")
	}

	// Static files
	if s.opts.WebRoot != "" {
		s.router.Path("/").HandlerFunc(s.handleIndex)
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.WebRoot)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// result is the body of account responses and errors
type result struct {
	Result bool   `json:"result"`
	Reason string `json:"reason,omitempty"`
}

func respondError(w http.ResponseWriter, status int, reason string) {
	respondJSON(w, status, result{Result: false, Reason: reason})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (credentials, bool) {
	var c credentials
	if r.Body == nil {
		return c, false
	}
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		return c, false
	}
	return c, true
}

// Account handlers

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ReasonInvalidBody)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, ReasonMissingCredentials)
		return
	}

	_, err := s.service.Register(r.Context(), creds.Username, creds.Password)
	switch {
	case errors.Is(err, store.ErrDuplicateUser):
		respondError(w, http.StatusBadRequest, ReasonUserTaken)
		return
	case errors.Is(err, store.ErrMissingCredentials):
		respondError(w, http.StatusBadRequest, ReasonMissingCredentials)
		return
	case err != nil:
		s.logger.Error("register failed", zap.String("username", creds.Username), zap.Error(err))
		respondError(w, http.StatusInternalServerError, ReasonInternal)
		return
	}

	respondJSON(w, http.StatusOK, result{Result: true, Reason: ReasonRegistered})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ReasonInvalidBody)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, ReasonMissingCredentials)
		return
	}

	res, err := s.service.Login(r.Context(), creds.Username, creds.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, ReasonBadCredentials)
		return
	case err != nil:
		s.logger.Error("login failed", zap.String("username", creds.Username), zap.Error(err))
		respondError(w, http.StatusInternalServerError, ReasonInternal)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  websocket.SessionCookie,
		Value: strconv.FormatUint(res.SessionID, 10),
		Path:  "/",
	})
	respondJSON(w, http.StatusOK, result{Result: true})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	ssid, ok := websocket.SessionID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ReasonLoginRequired)
		return
	}

	user, err := s.service.Info(r.Context(), ssid)
	switch {
	case errors.Is(err, service.ErrNotLoggedIn), errors.Is(err, store.ErrUserNotFound):
		respondError(w, http.StatusBadRequest, ReasonLoginRequired)
		return
	case err != nil:
		s.logger.Error("info failed", zap.Uint64("ssid", ssid), zap.Error(err))
		respondError(w, http.StatusInternalServerError, ReasonInternal)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Operator handlers

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.Stats(r.Context()))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListRooms(r.Context()))
}

func (s *Server) handleRoomBoard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	view, err := s.service.RoomBoard(r.Context(), id)
	if errors.Is(err, room.ErrRoomNotFound) {
		respondError(w, http.StatusNotFound, room.ErrRoomNotFound.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := s.opts.MCP.HandleMessage(r.Context(), body)
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.opts.WebRoot, LoginPage))
}
