package handler

import (
	"net/http"

	"studyboard/internal/model"
	"studyboard/internal/service"

	"github.com/gin-gonic/gin"
)

type ListHandler struct {
	svc *service.Lifecycle
}

func NewListHandler(svc *service.Lifecycle) *ListHandler {
	return &ListHandler{svc: svc}
}

type ListRequest struct {
	Title string `json:"title" binding:"required,notblank,max=120"`
}

// ListResponse marks whether clients should offer the list for deletion.
type ListResponse struct {
	model.List
	Deletable bool `json:"deletable"`
}

func listResponse(list model.List, board *model.Board) ListResponse {
	deletable := true
	if board != nil {
		deletable = !list.Protected(*board)
	}
	return ListResponse{List: list, Deletable: deletable}
}

// GetByBoard godoc
// @Summary      List the lists of a board
// @Tags         Lists
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Board ID"
// @Success      200  {array}  ListResponse
// @Router       /boards/{id}/lists [get]
func (h *ListHandler) GetByBoard(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	boardID, ok := paramID(c, "id")
	if !ok {
		return
	}

	board, lists, err := h.svc.ListLists(c.Request.Context(), owner, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]ListResponse, len(lists))
	for i, list := range lists {
		response[i] = listResponse(list, board)
	}
	c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary      Append a list to a board
// @Tags         Lists
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string       true  "Board ID"
// @Param        list  body  ListRequest  true  "List"
// @Success      201  {object}  ListResponse
// @Router       /boards/{id}/lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	boardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ListRequest
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.svc.CreateList(c.Request.Context(), owner, boardID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	defaultBoard := model.Board{ID: model.DefaultBoardID(owner), OwnerID: owner, IsDefault: true}
	c.JSON(http.StatusCreated, listResponse(*list, &defaultBoard))
}

func (h *ListHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ListRequest
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.svc.RenameList(c.Request.Context(), owner, listID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete godoc
// @Summary      Delete a list with its tasks
// @Tags         Lists
// @Security     BearerAuth
// @Param        id  path  string  true  "List ID"
// @Success      204
// @Router       /lists/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteList(c.Request.Context(), owner, listID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
