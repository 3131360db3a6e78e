package notes

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"note-draft/cmd/server/handlers/httperr"
	"note-draft/internal/draft"
	"note-draft/internal/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	// WebSocket timeout constants
	wsWriteTimeout     = 10 * time.Second // Timeout for writing messages to WebSocket
	wsPingInterval     = 25 * time.Second // Interval for sending ping messages
	wsPingWriteTimeout = 5 * time.Second  // Timeout for writing ping messages

	// wsOutboxBuffer bounds the per-connection status queue. A slow
	// client loses intermediate status frames, never the final one.
	wsOutboxBuffer = 64

	localUserID    = "wsUserID"
	localParentCtx = "wsParentCtx"

	msgFailedToCloseWebSocketConnection = "failed to close WebSocket connection"
)

// clientFrame is a message received from the editor client.
type clientFrame struct {
	Type  string `json:"type"`            // edit | save | close
	Field string `json:"field,omitempty"` // title | content (edit only)
	Value string `json:"value,omitempty"`
}

// serverFrame is a message pushed to the editor client.
type serverFrame struct {
	Type        string     `json:"type"` // status | error
	NoteID      string     `json:"note_id,omitempty"`
	Status      string     `json:"status,omitempty"`
	Dirty       bool       `json:"dirty"`
	JustSaved   bool       `json:"just_saved,omitempty"`
	LastSavedAt *time.Time `json:"last_saved_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// EditorHandlers serves the draft editor WebSocket endpoint.
// Each accepted connection owns exactly one draft session; closing the
// connection discards the draft.
type EditorHandlers struct {
	service       Service
	jwtSecret     string
	maxSessionSec int
	draftCfg      draft.Config
}

// NewEditorHandlers creates new editor WebSocket handlers
func NewEditorHandlers(service Service, jwtSecret string, maxSessionSec int, draftCfg draft.Config) *EditorHandlers {
	return &EditorHandlers{
		service:       service,
		jwtSecret:     jwtSecret,
		maxSessionSec: maxSessionSec,
		draftCfg:      draftCfg,
	}
}

// WSUpgrade upgrades an HTTP connection to a WebSocket editor session
func (h *EditorHandlers) WSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		// Validate JWT token from query parameter
		token := c.Query("token")
		if token == "" {
			logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
			return httperr.Fail(httperr.E{
				Status:  401,
				Message: "Missing token",
			})
		}

		userID, err := h.validateJWT(token)
		if err != nil {
			logger.L().Error("invalid token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path(), "error", err)
			return httperr.Fail(httperr.E{
				Status:  401,
				Message: "Invalid token",
			})
		}

		// Store user info and context in locals for the WebSocket handler
		c.Locals(localUserID, userID.Hex())
		// Use Fiber's request-bound context so the stream handler gets a
		// real context.Context.
		c.Locals(localParentCtx, c.UserContext())

		return c.Next()
	}

	logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
	return httperr.Fail(httperr.E{
		Status:  400,
		Message: "WebSocket upgrade required",
	})
}

// WSEditorStream runs a draft session over a WebSocket connection.
//
// The optional note_id query parameter opens an existing note; without
// it the session starts blank and the first commit creates the record.
func (h *EditorHandlers) WSEditorStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		h.closeConnection(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	baseline, err := h.loadBaseline(ctx, conn, c.Query("note_id"))
	if err != nil {
		h.writeFrame(c, conn, serverFrame{Type: "error", Error: "note not available"})
		h.closeConnection(c)
		return
	}

	outbox := make(chan serverFrame, wsOutboxBuffer)
	session := draft.NewSession(
		newSessionStore(h.service, conn.userID),
		baseline,
		h.draftCfg,
		logger.L().With("conn_id", conn.connID),
		func(snap draft.Snapshot) {
			select {
			case outbox <- statusFrame(snap):
			default:
				logger.L().Warn("editor outbox full, dropping status frame", "user_id", conn.userID.Hex(), "conn_id", conn.connID)
			}
		},
	)
	defer session.Close()

	logger.L().Info("editor session established", "user_id", conn.userID.Hex(), "conn_id", conn.connID, "note_id", snapshotNoteID(session))

	sessionTimer := h.startSessionTimer(c, conn, cancelCtx)
	defer h.stopSessionTimer(sessionTimer)

	ping := h.startKeepAlive(c, conn)
	defer ping.Stop()

	go h.handleOutgoingFrames(ctx, c, conn, outbox)

	// Initial status so the client renders the right state immediately.
	outbox <- statusFrame(session.Snapshot())

	h.handleIncomingFrames(c, conn, session)

	logger.L().Info("editor session closed", "user_id", conn.userID.Hex(), "conn_id", conn.connID)
	cancelCtx()
}

// wsConnection holds connection-specific data
type wsConnection struct {
	userID   bson.ObjectID
	connULID ulid.ULID
	connID   string
}

// initializeConnection validates and sets up the WebSocket connection
func (h *EditorHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	userIDStr, ok := c.Locals(localUserID).(string)
	if !ok {
		logger.L().Error("user id not found in WebSocket context")
		return nil, nil, fmt.Errorf("user id not found")
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user id in WebSocket context", "user_id", userIDStr, "error", err)
		return nil, nil, fmt.Errorf("invalid user id: %w", err)
	}

	parentCtx, ok := c.Locals(localParentCtx).(context.Context)
	if !ok {
		logger.L().Error("parent context not found in WebSocket context")
		return nil, nil, fmt.Errorf("parent context not found")
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	connID := connULID.String()

	conn := &wsConnection{
		userID:   userID,
		connULID: connULID,
		connID:   connID,
	}

	return conn, parentCtx, nil
}

// loadBaseline resolves the opening note, enforcing ownership through
// the notes service. An empty id starts a new-note session.
func (h *EditorHandlers) loadBaseline(ctx context.Context, conn *wsConnection, noteIDStr string) (*draft.Record, error) {
	if noteIDStr == "" {
		return nil, nil
	}

	noteID, err := bson.ObjectIDFromHex(noteIDStr)
	if err != nil {
		logger.L().Warn("invalid note id on editor open", "user_id", conn.userID.Hex(), "conn_id", conn.connID, "note_id", noteIDStr)
		return nil, err
	}

	resp, err := h.service.Get(ctx, conn.userID, noteID)
	if err != nil {
		logger.L().Warn("failed to open note for editing", "user_id", conn.userID.Hex(), "conn_id", conn.connID, "note_id", noteIDStr, "error", err)
		return nil, err
	}

	return recordFromNote(resp.Note), nil
}

// closeConnection safely closes the WebSocket connection
func (h *EditorHandlers) closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Error(msgFailedToCloseWebSocketConnection, "error", err)
	}
}

// startSessionTimer creates and starts the session timeout timer
func (h *EditorHandlers) startSessionTimer(c *websocket.Conn, conn *wsConnection, cancelCtx context.CancelFunc) *time.Timer {
	return time.AfterFunc(time.Duration(h.maxSessionSec)*time.Second, func() {
		logger.L().Info("editor session timeout", "user_id", conn.userID.Hex(), "conn_id", conn.connID)
		h.sendCloseMessage(c, conn)
		h.closeConnection(c)
		cancelCtx()
	})
}

// stopSessionTimer safely stops the session timer
func (h *EditorHandlers) stopSessionTimer(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

// sendCloseMessage sends a close frame to the client
func (h *EditorHandlers) sendCloseMessage(c *websocket.Conn, conn *wsConnection) {
	err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"))
	if err != nil {
		logger.L().Error("failed to send close message", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
	}
}

// startKeepAlive starts the keep-alive ping mechanism
func (h *EditorHandlers) startKeepAlive(c *websocket.Conn, conn *wsConnection) *time.Ticker {
	ping := time.NewTicker(wsPingInterval)
	go func() {
		for range ping.C {
			if h.sendPing(c, conn) != nil {
				return
			}
		}
	}()
	return ping
}

// sendPing sends a ping message to the client
func (h *EditorHandlers) sendPing(c *websocket.Conn, conn *wsConnection) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsPingWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
		return err
	}
	if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
		logger.L().Warn("failed to write ping message", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
		return err
	}
	return nil
}

// handleOutgoingFrames pushes queued status frames to the client
func (h *EditorHandlers) handleOutgoingFrames(ctx context.Context, c *websocket.Conn, conn *wsConnection, outbox <-chan serverFrame) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in editor sender", "error", r, "user_id", conn.userID.Hex())
		}
	}()

	for {
		select {
		case frame, ok := <-outbox:
			if !ok {
				return
			}
			if h.writeFrame(c, conn, frame) != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// writeFrame sends a single frame to the client
func (h *EditorHandlers) writeFrame(c *websocket.Conn, conn *wsConnection, frame serverFrame) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
		return err
	}
	if err := c.WriteJSON(frame); err != nil {
		logger.L().Error("failed to write WebSocket message", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
		return err
	}
	return nil
}

// handleIncomingFrames drives the draft session from client messages.
// Returning from here tears the session down, which also discards any
// in-flight commit result.
func (h *EditorHandlers) handleIncomingFrames(c *websocket.Conn, conn *wsConnection, session *draft.Session) {
	for {
		var frame clientFrame
		if err := c.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Error("WebSocket error", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
			}
			return
		}

		switch frame.Type {
		case "edit":
			switch draft.Field(frame.Field) {
			case draft.FieldTitle, draft.FieldContent:
				session.Edit(draft.Field(frame.Field), frame.Value)
			default:
				logger.L().Warn("unknown edit field", "field", frame.Field, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
			}
		case "save":
			session.Save()
		case "close":
			session.Close()
			return
		default:
			logger.L().Warn("unknown editor frame type", "type", frame.Type, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
		}
	}
}

// statusFrame renders a session snapshot as the wire-level status frame.
func statusFrame(snap draft.Snapshot) serverFrame {
	frame := serverFrame{
		Type:      "status",
		NoteID:    snap.NoteID,
		Status:    string(snap.Status),
		Dirty:     snap.Dirty,
		JustSaved: snap.JustSaved,
	}
	if !snap.LastSavedAt.IsZero() {
		t := snap.LastSavedAt
		frame.LastSavedAt = &t
	}
	if snap.Err != nil {
		frame.Error = snap.Err.Error()
	}
	return frame
}

func snapshotNoteID(session *draft.Session) string {
	id := session.Snapshot().NoteID
	if id == "" {
		return "(new)"
	}
	return id
}

// validateJWT validates the JWT token and extracts the user id
func (h *EditorHandlers) validateJWT(tokenString string) (bson.ObjectID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})

	if err != nil {
		return bson.ObjectID{}, err
	}

	if !token.Valid {
		return bson.ObjectID{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return bson.ObjectID{}, fmt.Errorf("invalid claims")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return bson.ObjectID{}, fmt.Errorf("missing user_id")
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("invalid user_id: %w", err)
	}

	return userID, nil
}
