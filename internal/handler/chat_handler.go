package handler

import (
	"net/http"

	"studyboard/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc *service.Lifecycle
}

func NewChatHandler(svc *service.Lifecycle) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatSessionRequest struct {
	Title string `json:"title" binding:"max=120"`
}

// GetAll godoc
// @Summary      List chat sessions
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.ChatSession
// @Router       /chat-sessions [get]
func (h *ChatHandler) GetAll(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	sessions, err := h.svc.ListChatSessions(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// Create godoc
// @Summary      Open a chat session
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session  body  ChatSessionRequest  false  "Session"
// @Success      201  {object}  model.ChatSession
// @Failure      402  {object}  DeniedResponse
// @Router       /chat-sessions [post]
func (h *ChatHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req ChatSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	session, denial, err := h.svc.CreateChatSession(c.Request.Context(), owner, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	if denial != nil {
		respondDenied(c, denial)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteChatSession(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Prompt godoc
// @Summary      Spend one AI prompt
// @Description  Counts against the daily allowance, then against purchased credits.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.PromptReceipt
// @Failure      402  {object}  DeniedResponse
// @Router       /prompts [post]
func (h *ChatHandler) Prompt(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	receipt, denial, err := h.svc.ConsumePrompt(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if denial != nil {
		respondDenied(c, denial)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
