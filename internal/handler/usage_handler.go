package handler

import (
	"net/http"

	"studyboard/internal/quota"
	"studyboard/internal/service"

	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	svc *service.Lifecycle
}

func NewUsageHandler(svc *service.Lifecycle) *UsageHandler {
	return &UsageHandler{svc: svc}
}

type PlanRequest struct {
	Plan string `json:"plan" binding:"required,oneof=free premium"`
}

type CreditsRequest struct {
	Credits int `json:"credits" binding:"required,gt=0,max=10000"`
}

// Get godoc
// @Summary      Current plan and usage
// @Tags         Usage
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.Report
// @Router       /usage [get]
func (h *UsageHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	report, err := h.svc.Usage(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SetPlan godoc
// @Summary      Change an owner's subscription plan
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Security     BillingToken
// @Param        id    path  string       true  "Owner ID"
// @Param        plan  body  PlanRequest  true  "Plan"
// @Success      200  {object}  service.Report
// @Router       /billing/owners/{id}/plan [put]
func (h *UsageHandler) SetPlan(c *gin.Context) {
	owner, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.svc.SetPlan(c.Request.Context(), owner, quota.Plan(req.Plan))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GrantCredits godoc
// @Summary      Add purchased AI credits to an owner
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Security     BillingToken
// @Param        id       path  string          true  "Owner ID"
// @Param        credits  body  CreditsRequest  true  "Credits"
// @Success      200  {object}  service.Report
// @Router       /billing/owners/{id}/credits [post]
func (h *UsageHandler) GrantCredits(c *gin.Context) {
	owner, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreditsRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.svc.GrantCredits(c.Request.Context(), owner, req.Credits)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
