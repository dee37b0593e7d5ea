// 알림 생명주기 API 핸들러
//
// 요청 흐름:
//  1. AuthMiddleware가 액세스 토큰에서 역할/병원 스코프 복원
//  2. JSON 페이로드 파싱 및 검증
//  3. service 레이어의 상태 머신 호출 (전이 유효성/권한은 service가 판단)
//  4. service 에러를 HTTP 상태 코드로 변환

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/service"
	"github.com/hospital-alert/backend/internal/store"
)

// Alert 핸들러 구조체 정의
type AlertHandler struct {
	alertService *service.AlertService
}

// Alert 핸들러 객체 생성
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

// Create godoc
// @Summary Create alert
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateAlertRequest true "Alert payload"
// @Success 200 {object} model.AlertEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/alerts [post]
func (h *AlertHandler) Create(c *gin.Context) {
	actor := GetAuthUser(c)

	var req model.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alert, err := h.alertService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.AlertEnvelope{Status: "success", Data: alert})
}

// List godoc
// @Summary List alerts
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param status query string false "active | acknowledged | resolved"
// @Param hospitalId query string false "Hospital scope"
// @Param limit query int false "Max results"
// @Success 200 {object} model.AlertListResponse
// @Router /api/v1/alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	actor := GetAuthUser(c)

	// 병원 스코프: admin 외에는 토큰의 병원으로 고정
	hospitalID := c.Query("hospitalId")
	if actor.Role != model.RoleAdmin {
		hospitalID = actor.HospitalID
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	alerts := h.alertService.List(store.AlertFilter{
		HospitalID: hospitalID,
		Status:     model.AlertStatus(c.Query("status")),
		Limit:      limit,
	})

	c.JSON(http.StatusOK, model.AlertListResponse{Alerts: alerts, Total: len(alerts)})
}

// Get godoc
// @Summary Get alert detail
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.AlertEnvelope
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id} [get]
func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.alertService.Get(GetAuthUser(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AlertEnvelope{Status: "success", Data: alert})
}

// Escalations godoc
// @Summary Escalation history for an alert
// @Description Falls back to the audit archive when the alert is no longer in live memory.
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.EscalationHistoryResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id}/escalations [get]
func (h *AlertHandler) Escalations(c *gin.Context) {
	id := c.Param("id")
	history, err := h.alertService.EscalationHistory(c.Request.Context(), GetAuthUser(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if history == nil {
		history = []model.EscalationEvent{}
	}

	c.JSON(http.StatusOK, model.EscalationHistoryResponse{AlertID: id, Escalations: history})
}

// Acknowledge godoc
// @Summary Acknowledge alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.AlertEnvelope
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	actor := GetAuthUser(c)

	alert, err := h.alertService.Acknowledge(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AlertEnvelope{Status: "success", Data: alert})
}

// Resolve godoc
// @Summary Resolve alert
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Param request body model.ResolveAlertRequest true "Resolution note"
// @Success 200 {object} model.AlertEnvelope
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	actor := GetAuthUser(c)

	var req model.ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alert, err := h.alertService.Resolve(c.Request.Context(), actor, c.Param("id"), req.Resolution)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AlertEnvelope{Status: "success", Data: alert})
}

// Escalate godoc
// @Summary Manually escalate alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.AlertEnvelope
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/alerts/{id}/escalate [post]
func (h *AlertHandler) Escalate(c *gin.Context) {
	actor := GetAuthUser(c)

	alert, err := h.alertService.Escalate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AlertEnvelope{Status: "success", Data: alert})
}

// writeServiceError - service 레이어 에러 → HTTP 상태 코드 매핑
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
