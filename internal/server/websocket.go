package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido"

	"github.com/msto63/kaleido/internal/history"
	"github.com/msto63/kaleido/internal/history/store"
	"github.com/msto63/kaleido/internal/render"
)

const idleTimeout = 120 * time.Second

// WebSocketHandler parses sources sent over WebSocket connections
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	config   Config
	logger   *klog.Logger
	history  store.Store
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cfg Config, logger *klog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		config: cfg,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "parse", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSParsePayload carries the source text of a parse request
type WSParsePayload struct {
	Source string `json:"source"`
	Strict bool   `json:"strict,omitempty"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"`    // "result", "error", "pong"
	Payload interface{} `json:"payload"` // Response-specific payload
}

// WSResultPayload lists the constructs and diagnostics of one source
type WSResultPayload struct {
	Constructs []map[string]interface{} `json:"constructs"`
	Errors     []map[string]interface{} `json:"errors"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// checkOrigin accepts every origin unless AllowedOrigins is set. Requests
// without an Origin header are not from a browser and always pass.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnWithErr("WebSocket upgrade failed", err)
		return
	}
	h.handleConnection(conn)
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := uuid.New().String()
	logger := h.logger.WithSessionID(session)
	logger.Info("WebSocket connection established", klog.Fields{"remote": conn.RemoteAddr().String()})

	if h.config.MaxMessageSize > 0 {
		conn.SetReadLimit(h.config.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(idleTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if isDecodeError(err) {
				h.sendError(conn, logger, "invalid_message", "Invalid JSON message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnWithErr("WebSocket read error", err)
			} else {
				logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(idleTimeout))

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, logger, WSResponse{Type: "pong", Payload: nil})

		case "parse":
			var payload WSParsePayload
			if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, &payload) != nil {
				h.sendError(conn, logger, "invalid_payload", "Invalid parse payload")
				continue
			}
			h.sendResponse(conn, logger, WSResponse{
				Type:    "result",
				Payload: h.parseSource(ctx, payload, session, logger),
			})

		default:
			h.sendError(conn, logger, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// parseSource runs a fresh engine over one source text
func (h *WebSocketHandler) parseSource(ctx context.Context, payload WSParsePayload, session string, logger *klog.Logger) WSResultPayload {
	engine := kaleido.NewEngine(kaleido.Options{
		Logger:    logger,
		Strict:    payload.Strict,
		SessionID: session,
	})

	collector := &kaleido.Collector{}
	var handler kaleido.Handler = collector
	if h.history != nil {
		handler = history.NewRecorder(h.history, session, collector, logger)
	}
	if _, err := engine.Run(ctx, strings.NewReader(payload.Source), handler); err != nil {
		collector.Errors = append(collector.Errors, err)
	}

	out := WSResultPayload{
		Constructs: make([]map[string]interface{}, 0, len(collector.Results)),
		Errors:     make([]map[string]interface{}, 0, len(collector.Errors)),
	}
	for _, r := range collector.Results {
		out.Constructs = append(out.Constructs, render.ResultDocument(r))
	}
	for _, err := range collector.Errors {
		out.Errors = append(out.Errors, render.ErrorDocument(err))
	}
	return out
}

func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, logger *klog.Logger, resp WSResponse) {
	if h.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
	}
	data, err := encodeResponse(resp)
	if err != nil {
		logger.WarnWithErr("WebSocket response not encodable", err, klog.Fields{"type": resp.Type})
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.WarnWithErr("WebSocket send error", err)
	}
}

// encodeResponse marshals resp. When that fails the client still gets a
// frame: an error envelope naming the failure, returned with the error.
func encodeResponse(resp WSResponse) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err == nil {
		return data, nil
	}
	fallback, _ := json.Marshal(WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    "encoding_failed",
			Message: "Response could not be encoded: " + err.Error(),
		},
	})
	return fallback, err
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, logger *klog.Logger, code, message string) {
	h.sendResponse(conn, logger, WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// isDecodeError reports a malformed message that leaves the connection usable
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
