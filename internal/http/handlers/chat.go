package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	res, err := h.chat.Respond(dbc, req)
	if err != nil {
		response.RespondAPIError(c, err, "chat_failed")
		return
	}
	response.RespondOK(c, res)
}
