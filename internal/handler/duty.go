package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/service"
)

type DutyHandler struct {
	dutyService *service.DutyService
}

func NewDutyHandler(dutyService *service.DutyService) *DutyHandler {
	return &DutyHandler{dutyService: dutyService}
}

// Toggle godoc
// @Summary Toggle on-duty status
// @Tags duty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ToggleDutyRequest true "On-duty flag"
// @Success 200 {object} model.OnDutyStatus
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/duty [post]
func (h *DutyHandler) Toggle(c *gin.Context) {
	actor := GetAuthUser(c)

	var req model.ToggleDutyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsOnDuty == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	c.JSON(http.StatusOK, h.dutyService.Toggle(actor, *req.IsOnDuty))
}

// Status godoc
// @Summary Get on-duty status
// @Tags duty
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.OnDutyStatus
// @Router /api/v1/duty [get]
func (h *DutyHandler) Status(c *gin.Context) {
	actor := GetAuthUser(c)
	c.JSON(http.StatusOK, h.dutyService.Status(actor))
}
