// Jeopardy board sessions
//
// Each board is dealt from the quiz source and played in the browser.
//
// Features:
// - WebSockets per board ID: /path/:gameid and /path/:gameid/ws
// - First player to connect hosts the board; only the host deals and reveals
// - Players identified by cookie (playerID)
// - Dealing fetches every category's clues in parallel and waits for all of them
// - A category that fails to load shows up as unavailable cells, the rest still play
// - Cells go hidden -> prompt -> reveal, and stay revealed
// - Viewers only ever receive the text of cells the host has opened
// - JSON endpoints for the board, dealing and revealing, for non-browser clients
// - Boards auto-reaped after configurable idle timeout
// - Random 8-char board IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current board, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/jeopardy/games/jeopardy"
)

const (
	playerCookieName = "jeopardy_id"
	maxMessageSize   = 1024
)

// Messages coming from clients
type ClientMessage struct {
	Type   string `json:"type"`   // "start", "activate"
	Column int    `json:"column"` // activate
	Row    int    `json:"row"`    // activate
}

// SessionInfoMessage is sent immediately on connect so the client knows
// whether it may deal and reveal.
type SessionInfoMessage struct {
	Type    string `json:"type"` // "session_info"
	IsHost  bool   `json:"is_host"`
	Loading bool   `json:"loading"`
}

// SimpleMessage is for generic notifications ("loading", "error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BoardMessage carries a whole board, sent after every deal and on connect.
type BoardMessage struct {
	Type       string             `json:"type"` // "board"
	Board      jeopardy.BoardView `json:"board"`
	Incomplete bool               `json:"incomplete"` // some categories came back short
	Loading    bool               `json:"loading"`    // a replacement is being dealt
}

// CellMessage carries a single cell after the host opens it.
type CellMessage struct {
	Type     string            `json:"type"` // "cell"
	Cell     jeopardy.CellView `json:"cell"`
	Finished bool              `json:"finished"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type startRequest struct {
	playerID string
	reply    chan error
}

type activateResult struct {
	cell jeopardy.CellView
	err  error
}

type activateRequest struct {
	playerID string
	column   int
	row      int
	reply    chan activateResult
}

type dealtBoard struct {
	state *jeopardy.GameState
	err   error
}

// Hub owns one board. All changes to the board happen on the run goroutine;
// mu guards what the HTTP handlers and reaper read.
type Hub struct {
	id       string
	acquirer *jeopardy.Acquirer
	clock    clockwork.Clock
	clients  map[*Client]bool

	register    chan *Client
	unreg       chan *Client
	starts      chan startRequest
	activations chan activateRequest
	dealt       chan dealtBoard

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	createdAt    time.Time
	lastActive   time.Time
	hostPlayerID string

	board      *jeopardy.Board
	incomplete bool
	loading    bool
}

func newHub(ctx context.Context, gameID string, acquirer *jeopardy.Acquirer, clock clockwork.Clock) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	now := clock.Now()

	return &Hub{
		id:          gameID,
		acquirer:    acquirer,
		clock:       clock,
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unreg:       make(chan *Client),
		starts:      make(chan startRequest),
		activations: make(chan activateRequest),
		dealt:       make(chan dealtBoard),
		ctx:         ctx,
		cancel:      cancel,
		createdAt:   now,
		lastActive:  now,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.touchLocked()

			// First connection hosts the board
			if h.hostPlayerID == "" {
				h.hostPlayerID = c.playerID
			}

			h.clients[c] = true

			h.sendLocked(c, SessionInfoMessage{
				Type:    "session_info",
				IsHost:  c.playerID == h.hostPlayerID,
				Loading: h.loading,
			})

			if h.board != nil {
				h.sendLocked(c, h.boardMessageLocked())
			}

			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.touchLocked()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.starts:
			h.mu.Lock()
			err := h.startLocked(cfg, req.playerID)
			h.mu.Unlock()

			req.reply <- err

		case req := <-h.activations:
			h.mu.Lock()
			cell, err := h.activateLocked(req)
			h.mu.Unlock()

			req.reply <- activateResult{cell: cell, err: err}

		case d := <-h.dealt:
			h.finishDeal(cfg, d)
		}
	}
}

func (h *Hub) touchLocked() {
	h.lastActive = h.clock.Now()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

// sendLocked queues msg for c, dropping the client if it has fallen behind.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) sendError(c *Client, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, SimpleMessage{
		Type:    "error",
		Message: err.Error(),
	})
}

func (h *Hub) boardMessageLocked() BoardMessage {
	return BoardMessage{
		Type:       "board",
		Board:      h.board.View(),
		Incomplete: h.incomplete,
		Loading:    h.loading,
	}
}

// startLocked kicks off a deal in the background. Only one deal runs at a time.
func (h *Hub) startLocked(cfg *Config, playerID string) error {
	h.touchLocked()

	if h.hostPlayerID == "" {
		h.hostPlayerID = playerID
	}

	if playerID != h.hostPlayerID {
		return errNotHost
	}

	if h.loading {
		return errLoading
	}

	h.loading = true

	h.broadcastLocked(SimpleMessage{
		Type:    "loading",
		Message: "Dealing a new board...",
	})

	logf(cfg, "GAMES: Dealing board %s", h.id)

	go h.deal(cfg.fetchTimeout)

	return nil
}

func (h *Hub) deal(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(h.ctx, timeout)
	defer cancel()

	state, err := h.acquirer.Acquire(ctx)

	select {
	case h.dealt <- dealtBoard{state: state, err: err}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) finishDeal(cfg *Config, d dealtBoard) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()
	h.loading = false

	var board *jeopardy.Board
	if d.state != nil {
		board = jeopardy.NewBoard(d.state)
	}

	// a board with nothing to open is as good as no board
	if board == nil || board.Finished() {
		log.Error().Err(d.err).Str("game", h.id).Msg("failed to deal board")

		h.broadcastLocked(SimpleMessage{
			Type:    "error",
			Message: "Unable to reach the quiz archive. Please try again.",
		})

		if h.board != nil {
			h.broadcastLocked(h.boardMessageLocked())
		}

		return
	}

	if d.err != nil {
		log.Warn().Err(d.err).Str("game", h.id).Msg("dealt an incomplete board")
	}

	h.board = board
	h.incomplete = d.err != nil

	logf(cfg, "GAMES: Dealt board %s", h.id)

	h.broadcastLocked(h.boardMessageLocked())
}

func (h *Hub) activateLocked(req activateRequest) (jeopardy.CellView, error) {
	h.touchLocked()

	if req.playerID != h.hostPlayerID {
		return jeopardy.CellView{}, errNotHost
	}

	if h.loading {
		return jeopardy.CellView{}, errLoading
	}

	if h.board == nil {
		return jeopardy.CellView{}, errNoBoard
	}

	cell, err := h.board.Activate(req.column, req.row)
	if err != nil {
		return cell, err
	}

	h.broadcastLocked(CellMessage{
		Type:     "cell",
		Cell:     cell,
		Finished: h.board.Finished(),
	})

	return cell, nil
}

// start asks the hub to deal a new board on behalf of playerID.
func (h *Hub) start(playerID string) error {
	req := startRequest{
		playerID: playerID,
		reply:    make(chan error, 1),
	}

	select {
	case h.starts <- req:
	case <-h.ctx.Done():
		return errHubClosed
	}

	select {
	case err := <-req.reply:
		return err
	case <-h.ctx.Done():
		return errHubClosed
	}
}

// activate asks the hub to open the cell at column, row on behalf of playerID.
func (h *Hub) activate(playerID string, column, row int) (jeopardy.CellView, error) {
	req := activateRequest{
		playerID: playerID,
		column:   column,
		row:      row,
		reply:    make(chan activateResult, 1),
	}

	select {
	case h.activations <- req:
	case <-h.ctx.Done():
		return jeopardy.CellView{}, errHubClosed
	}

	select {
	case res := <-req.reply:
		return res.cell, res.err
	case <-h.ctx.Done():
		return jeopardy.CellView{}, errHubClosed
	}
}

func (h *Hub) snapshot() (BoardMessage, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.board == nil {
		return BoardMessage{}, errNoBoard
	}

	return h.boardMessageLocked(), nil
}

// closeAll stops the hub and disconnects all of its clients (used by reaper).
func (h *Hub) closeAll() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

func newUpgrader(cfg *Config) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			if slices.Contains(cfg.corsOrigins, origin) {
				return true
			}

			u, err := url.Parse(origin)

			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by board ID, so each $path/$gameid
// is its own isolated board.
type GameManager struct {
	ctx         context.Context
	mu          sync.Mutex
	hubs        map[string]*Hub
	acquirer    *jeopardy.Acquirer
	clock       clockwork.Clock
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, acquirer *jeopardy.Acquirer, clock clockwork.Clock, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		hubs:        make(map[string]*Hub),
		acquirer:    acquirer,
		clock:       clock,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.ctx, gameID, gm.acquirer, gm.clock)
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	logf(cfg, "GAMES: Opened board %s", gameID)

	return hub
}

func (gm *GameManager) lookup(gameID string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[gameID]

	return hub, ok
}

func (gm *GameManager) count() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return len(gm.hubs)
}

// newGameID generates a crypto-random board ID and ensures it doesn't
// collide with existing boards.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		if _, exists := gm.lookup(id); !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := gm.clock.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.Chan():
			gm.reap()
		}
	}
}

func (gm *GameManager) reap() {
	cutoff := gm.clock.Now().Add(-gm.idleTimeout)

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWS(cfg *Config, gm *GameManager) httprouter.Handle {
	upgrader := newUpgrader(cfg)

	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("game", gameID).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.ctx.Done():
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		var err error

		switch msg.Type {
		case "start":
			err = h.start(c.playerID)
		case "activate":
			_, err = h.activate(c.playerID, msg.Column, msg.Row)
		default:
			// ignore unknown types
			continue
		}

		if errors.Is(err, errHubClosed) {
			return
		}

		if err != nil {
			h.sendError(c, err)
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

func serveBoardState(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		securityHeaders(cfg, w)
		w.Header().Set("Cache-Control", "no-store")

		hub, ok := gm.lookup(ps.ByName("gameid"))
		if !ok {
			http.Error(w, "no such board", http.StatusNotFound)
			return
		}

		msg, err := hub.snapshot()
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		if err := writeJSON(w, http.StatusOK, msg); err != nil {
			errs <- err
		}
	}
}

func serveStart(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		securityHeaders(cfg, w)

		gameID := ps.ByName("gameid")
		playerID := getOrSetPlayerID(w, r)

		if err := gm.getHub(cfg, gameID).start(playerID); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		logf(cfg, "GAMES: %s requested a new board for %s", realIP(r), gameID)

		w.WriteHeader(http.StatusAccepted)
	}
}

func serveActivate(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		securityHeaders(cfg, w)

		column, err := strconv.Atoi(ps.ByName("column"))
		if err != nil {
			http.Error(w, "invalid column", http.StatusBadRequest)
			return
		}

		row, err := strconv.Atoi(ps.ByName("row"))
		if err != nil {
			http.Error(w, "invalid row", http.StatusBadRequest)
			return
		}

		hub, ok := gm.lookup(ps.ByName("gameid"))
		if !ok {
			http.Error(w, "no such board", http.StatusNotFound)
			return
		}

		cell, err := hub.activate(getOrSetPlayerID(w, r), column, row)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		if err := writeJSON(w, http.StatusOK, cell); err != nil {
			errs <- err
		}
	}
}

// serveQR generates a PNG QR code for the current board URL using go-qrcode.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the board URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(scheme+"://"+r.Host+path, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// redirectNewGame handles GET /path by generating a new random board ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created board %s%s/%s", cfg.prefix, path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerJeopardyGame sets up routes so that:
//   - $path                              → redirects to new random board (8-char ID)
//   - $path/:gameid                      → HTML client
//   - $path/:gameid/ws                   → WebSocket for that board
//   - $path/:gameid/board                → JSON snapshot of the board
//   - $path/:gameid/start                → deal a new board (host only)
//   - $path/:gameid/cells/:column/:row   → open a cell (host only)
//   - $path/:gameid/qr                   → PNG QR code for that board URL
func registerJeopardyGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveBoardPage(cfg, path, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWS(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/board", serveBoardState(cfg, gm, errs))
	mux.POST(cfg.prefix+path+"/:gameid/start", serveStart(cfg, gm))
	mux.POST(cfg.prefix+path+"/:gameid/cells/:column/:row", serveActivate(cfg, gm, errs))

	mux.GET(cfg.prefix+path+"/:gameid/qr", serveQR(cfg))
}
