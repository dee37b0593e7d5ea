// WebSocket 구독 핸들러
// 인증된 사용자를 병원 스코프 허브에 등록
// 재접속 시 놓친 이벤트 보정은 클라이언트가 GET /api/v1/alerts 재조회로 수행

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/ws"
)

type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	allowAll := false
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "*" {
			allowAll = true
			continue
		}
		if trimmed != "" {
			originMap[trimmed] = struct{}{}
		}
	}

	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				_, ok := originMap[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Subscribe godoc
// @Summary Subscribe to real-time alert events
// @Description Upgrades to WebSocket. Events are scoped to the caller's hospital.
// @Tags ws
// @Security BearerAuth
// @Param hospitalId query string false "Hospital scope (admin only)"
// @Router /ws [get]
func (h *WSHandler) Subscribe(c *gin.Context) {
	actor := GetAuthUser(c)

	// 병원 스코프: admin만 임의 병원 구독 가능, 그 외는 토큰의 병원으로 고정
	hospitalID := actor.HospitalID
	if actor.Role == model.RoleAdmin {
		if requested := c.Query("hospitalId"); requested != "" {
			hospitalID = requested
		}
	}
	if hospitalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hospital scope required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 실패 시 응답은 upgrader가 이미 작성함
		return
	}

	h.hub.Register(conn, hospitalID, actor.LoginID)
}
