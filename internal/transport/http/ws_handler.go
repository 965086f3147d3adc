package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anonrelay/anonrelay-server/internal/core"
)

// WSHandler upgrades HTTP connections and hands them to the binder.
type WSHandler struct {
	binder *core.Binder
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(binder *core.Binder, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{binder: binder, log: logger}
}

// Handle returns the upgrade handler for one channel kind. The membership
// token and channel token arrive as query parameters; the observed client
// IP is the origin identity the token must have been issued to.
func (h *WSHandler) Handle(kind core.ChannelKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatToken := c.Query("chat_token")
		userToken := c.Query("token")
		originIP := c.ClientIP()

		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			h.log.Error().Err(err).Msg("ws accept error")
			return
		}

		connID := uuid.NewString()
		logger := h.log.With().
			Str("conn_id", connID).
			Str("kind", string(kind)).
			Str("chat_token", chatToken).
			Logger()

		err = h.binder.ServeConn(c.Request.Context(), kind, chatToken, userToken, originIP, newWSConn(conn))

		var coreErr *core.CoreError
		if errors.As(err, &coreErr) {
			// The binder already closed the socket with the reason.
			logger.Debug().Str("code", coreErr.Code).Msg("ws connection rejected")
			return
		}
		if err != nil {
			logger.Warn().Err(err).Msg("ws connection closed with error")
			conn.Close(websocket.StatusInternalError, "internal error")
			return
		}

		logger.Debug().Msg("ws connection closed")
		conn.Close(websocket.StatusNormalClosure, "closing")
	}
}

// wsConn adapts a websocket connection to the core's Conn interface,
// carrying opaque text frames verbatim in both directions.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (w *wsConn) Receive(ctx context.Context) (string, error) {
	typ, data, err := w.conn.Read(ctx)
	if err != nil {
		return "", err
	}
	if typ != websocket.MessageText {
		// The relay carries text only; a binary frame ends the connection
		// and consumes the sender's session.
		_ = w.conn.Close(websocket.StatusUnsupportedData, "text frames only")
		return "", fmt.Errorf("unexpected %v frame", typ)
	}
	return string(data), nil
}

func (w *wsConn) Send(ctx context.Context, text string) error {
	return w.conn.Write(ctx, websocket.MessageText, []byte(text))
}

// Close rejects or terminates the connection with a policy violation
// status and an explicit reason, mirroring the close code clients expect.
func (w *wsConn) Close(reason string) error {
	return w.conn.Close(websocket.StatusPolicyViolation, reason)
}
