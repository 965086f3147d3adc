package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/anonrelay/anonrelay-server/internal/core"
)

// ChannelHandlers provides HTTP handlers for channel and token endpoints.
type ChannelHandlers struct {
	manager *core.Manager
	log     *zerolog.Logger
}

// NewChannelHandlers creates a new channel handlers instance.
func NewChannelHandlers(manager *core.Manager, logger *zerolog.Logger) *ChannelHandlers {
	return &ChannelHandlers{
		manager: manager,
		log:     logger,
	}
}

// CreateChatResponse is returned to a channel's creator. The superpassword
// is surfaced here once and never again.
type CreateChatResponse struct {
	Token         string `json:"token"`
	ChatToken     string `json:"chat_token"`
	ChatType      string `json:"chat_type"`
	Superpassword string `json:"superpassword"`
}

// TokenResponse carries a freshly issued membership token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateChat handles channel creation.
// GET /createchat?chat_type=&auto_join=&max_users=&allow_dm_between_members=&name=
func (h *ChannelHandlers) CreateChat(c *gin.Context) {
	kind, err := core.ParseKind(c.Query("chat_type"))
	if err != nil {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you are not authorized to create a chat of this type"})
		return
	}

	autoJoin, ok := parseBoolParam(c.Query("auto_join"))
	if !ok {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you are not authorized to create a chat of this type"})
		return
	}
	allowDM, ok := parseBoolParam(c.Query("allow_dm_between_members"))
	if !ok {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you are not authorized to create a chat of this type"})
		return
	}

	maxUsers, err := strconv.Atoi(c.DefaultQuery("max_users", "0"))
	if err != nil || maxUsers < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "max_users must be a non-negative integer"})
		return
	}

	created, err := h.manager.CreateChannel(kind, autoJoin, maxUsers, allowDM, c.Query("name"), c.ClientIP())
	if err != nil {
		h.renderCoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateChatResponse{
		Token:         created.UserToken,
		ChatToken:     created.ChannelToken,
		ChatType:      string(created.Kind),
		Superpassword: created.Superpassword,
	})
}

// AuthToken handles membership token issuance for an existing channel.
// GET /authtoken?chat_type=&chat_token=&name=
func (h *ChannelHandlers) AuthToken(c *gin.Context) {
	kind, err := core.ParseKind(c.Query("chat_type"))
	if err != nil {
		h.renderCoreError(c, err)
		return
	}

	token, err := h.manager.IssueMembership(kind, c.Query("chat_token"), c.Query("name"), c.ClientIP())
	if err != nil {
		h.renderCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// DeleteChat removes a channel out-of-band, authorized by superpassword.
// GET /deletechat?chat_type=&chat_token=&superpassword=
func (h *ChannelHandlers) DeleteChat(c *gin.Context) {
	kind, err := core.ParseKind(c.Query("chat_type"))
	if err != nil {
		h.renderCoreError(c, err)
		return
	}

	if err := h.manager.DeleteChannel(kind, c.Query("chat_token"), c.Query("superpassword")); err != nil {
		h.renderCoreError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// renderCoreError maps a domain error onto an HTTP status and body.
func (h *ChannelHandlers) renderCoreError(c *gin.Context, err error) {
	var coreErr *core.CoreError
	if !errors.As(err, &coreErr) {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch coreErr.Code {
	case core.ErrCodeChannelNotFound:
		status = http.StatusNotFound
	case core.ErrCodeInvalidChatType, core.ErrCodeBadSuperpassword:
		status = http.StatusForbidden
	case core.ErrCodeNameTaken, core.ErrCodeCapacityReached:
		status = http.StatusConflict
	case core.ErrCodeIssuanceExhausted:
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{Error: coreErr.Message})
}

// parseBoolParam accepts exactly "true" or "false"; anything else is
// rejected the way the create endpoint always has.
func parseBoolParam(s string) (value, ok bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
