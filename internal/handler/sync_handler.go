package handler

import (
	"net/http"
	"time"

	"studyboard/internal/livesync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	eventSession   = "session"
	eventChange    = "change"
	eventHeartbeat = "heartbeat"
)

// SyncHandler streams board changes to clients over server-sent events.
type SyncHandler struct {
	manager   *livesync.Manager
	heartbeat time.Duration
	log       logrus.FieldLogger
}

func NewSyncHandler(manager *livesync.Manager, heartbeat time.Duration, log logrus.FieldLogger) *SyncHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &SyncHandler{manager: manager, heartbeat: heartbeat, log: log}
}

type SelectBoardRequest struct {
	BoardID uuid.UUID `json:"board_id" binding:"required"`
}

type sessionEvent struct {
	SessionID uuid.UUID     `json:"session_id"`
	View      livesync.View `json:"view"`
}

// Stream godoc
// @Summary      Live board updates
// @Description  Server-sent events. The first event names the session; later events carry diffs plus the full view.
// @Tags         Sync
// @Produce      text/event-stream
// @Security     BearerAuth
// @Router       /sync/stream [get]
func (h *SyncHandler) Stream(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	session, err := h.manager.Open(ctx, owner)
	if err != nil {
		respondError(c, err)
		return
	}
	defer h.manager.Close(session.ID)
	log := h.log.WithFields(logrus.Fields{"session_id": session.ID, "owner_id": owner})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent(eventSession, sessionEvent{SessionID: session.ID, View: session.View()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case change := <-session.Events():
			c.SSEvent(eventChange, change)
			c.Writer.Flush()
		case t := <-ticker.C:
			c.SSEvent(eventHeartbeat, gin.H{"time": t.UTC()})
			c.Writer.Flush()
		case <-session.Done():
			log.Info("sync stream closed by server")
			return
		case <-ctx.Done():
			log.Debug("sync client disconnected")
			return
		}
	}
}

// Select godoc
// @Summary      Switch the board a sync session follows
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string              true  "Session ID"
// @Param        board  body  SelectBoardRequest  true  "Board"
// @Success      200  {object}  livesync.View
// @Router       /sync/sessions/{id}/select [post]
func (h *SyncHandler) Select(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SelectBoardRequest
	if !bindJSON(c, &req) {
		return
	}

	session, found := h.manager.Get(id, owner)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sync session not found"})
		return
	}
	if err := session.Select(req.BoardID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}
