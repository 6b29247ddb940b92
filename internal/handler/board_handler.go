package handler

import (
	"net/http"

	"studyboard/internal/service"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	svc *service.Lifecycle
}

func NewBoardHandler(svc *service.Lifecycle) *BoardHandler {
	return &BoardHandler{svc: svc}
}

type BoardRequest struct {
	Title string `json:"title" binding:"required,notblank,max=120"`
}

// GetAll godoc
// @Summary      List boards
// @Description  Returns the caller's boards, creating the default board on first use
// @Tags         Boards
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Board
// @Router       /boards [get]
func (h *BoardHandler) GetAll(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	boards, err := h.svc.ListBoards(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// Create godoc
// @Summary      Create a board
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        board  body      BoardRequest  true  "Board"
// @Success      201    {object}  model.Board
// @Failure      402    {object}  DeniedResponse
// @Router       /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req BoardRequest
	if !bindJSON(c, &req) {
		return
	}

	board, denial, err := h.svc.CreateBoard(c.Request.Context(), owner, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	if denial != nil {
		respondDenied(c, denial)
		return
	}
	c.JSON(http.StatusCreated, board)
}

// Update godoc
// @Summary      Rename a board
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string        true  "Board ID"
// @Param        board  body      BoardRequest  true  "Board"
// @Success      200    {object}  model.Board
// @Router       /boards/{id} [put]
func (h *BoardHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	boardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req BoardRequest
	if !bindJSON(c, &req) {
		return
	}

	board, err := h.svc.RenameBoard(c.Request.Context(), owner, boardID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Delete godoc
// @Summary      Delete a board with its lists and tasks
// @Tags         Boards
// @Security     BearerAuth
// @Param        id  path  string  true  "Board ID"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Router       /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	boardID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteBoard(c.Request.Context(), owner, boardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
