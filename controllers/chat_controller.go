package controllers

import (
	"encoding/json"
	"net/http"

	"studenteats/middlewares"
	"studenteats/services"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/gin-gonic/gin"
)

type ChatController struct {
	Chat *services.ChatService
}

func NewChatController(cs *services.ChatService) *ChatController {
	return &ChatController{Chat: cs}
}

// POST /chat
func (cc *ChatController) Send(c *gin.Context) {
	var req services.ChatRequest
	if authed := middlewares.UserID(c); authed != "" {
		req.UserID = authed
	}
	if !bindJSON(c, &req) || !sameUser(c, req.UserID) {
		return
	}
	res, err := cc.Chat.Chat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /chat/history/:user_id?limit
func (cc *ChatController) History(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	msgs, err := cc.Chat.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "messages": msgs})
}

// DELETE /chat/history/:user_id
func (cc *ChatController) ClearHistory(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	n, err := cc.Chat.ClearHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// GET /mcp/tools
func (cc *ChatController) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": cc.Chat.Tools().Tools()})
}

// POST /mcp/tools/call runs one registry tool for an MCP client. The acting
// user comes from the bearer token, or from a user_id argument when anonymous.
// Tool failures are reported in-band with isError rather than as HTTP errors.
func (cc *ChatController) CallTool(c *gin.Context) {
	var req protocol.CallToolRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respondError(c, services.ValidationFromBinding(err))
		return
	}
	userID := middlewares.UserID(c)
	if userID == "" {
		userID, _ = req.Arguments["user_id"].(string)
	}
	args, err := json.Marshal(req.Arguments)
	if err != nil {
		respondError(c, services.Validation("arguments", "arguments must be a JSON object"))
		return
	}

	text, err := cc.Chat.Tools().Invoke(c.Request.Context(), services.ToolContext{UserID: userID}, req.Name, string(args))
	res := &protocol.CallToolResult{}
	if err != nil {
		res.IsError = true
		text = services.AsError(err).Message
	}
	res.Content = []protocol.Content{&protocol.TextContent{Type: "text", Text: text}}
	c.JSON(http.StatusOK, res)
}
