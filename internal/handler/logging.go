// 로깅 수집 서버 핸들러
//
// 요청 흐름:
//  1. 클라이언트(앱 화면/백엔드)가 단건 또는 배치로 이벤트 전송
//  2. 저장소에 append (category 버킷) + 콘솔 echo
//  3. 조회/통계 엔드포인트로 운영자가 확인
//
// 배치 재전송(X-Retry-Count)은 정보성 헤더일 뿐 중복 제거는 수행하지 않음
// - 재시도가 중복 적재를 만들 수 있다는 점은 알려진 제약

package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/store"
)

type LoggingHandler struct {
	store *store.LogStore
}

func NewLoggingHandler(logStore *store.LogStore) *LoggingHandler {
	return &LoggingHandler{store: logStore}
}

// Log godoc
// @Summary Ingest a single log event
// @Tags logging
// @Accept json
// @Produce json
// @Param request body model.LogEvent true "Log event"
// @Success 200 {object} model.SingleLogResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /log [post]
func (h *LoggingHandler) Log(c *gin.Context) {
	var event model.LogEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse log event"})
		return
	}

	h.store.Append(fillDefaults(event))
	c.JSON(http.StatusOK, model.SingleLogResponse{Success: true})
}

// LogBatch godoc
// @Summary Ingest a batch of log events
// @Tags logging
// @Accept json
// @Produce json
// @Param X-Batch-ID header string false "Batch ID for replay tracking"
// @Param X-Retry-Count header string false "Retry attempt count"
// @Param request body model.BatchLogRequest true "Log events"
// @Success 200 {object} model.BatchLogResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /log/batch [post]
func (h *LoggingHandler) LogBatch(c *gin.Context) {
	var req model.BatchLogRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Events == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "events must be an array"})
		return
	}

	batchID := c.GetHeader("X-Batch-ID")
	retryCount, _ := strconv.Atoi(c.GetHeader("X-Retry-Count"))
	if retryCount > 0 {
		log.Printf("Batch replay received (batch_id=%s, retry=%d, count=%d)", batchID, retryCount, len(req.Events))
	}

	for _, event := range req.Events {
		h.store.Append(fillDefaults(event))
	}

	c.JSON(http.StatusOK, model.BatchLogResponse{
		Success: true,
		Count:   len(req.Events),
		BatchID: batchID,
		Stats:   h.store.Stats(),
	})
}

// Logs godoc
// @Summary Query stored log events
// @Tags logging
// @Produce json
// @Param category query string false "Category filter, or 'all'"
// @Param limit query int false "Max results (default 100)"
// @Success 200 {object} model.LogQueryResponse
// @Router /logs [get]
func (h *LoggingHandler) Logs(c *gin.Context) {
	category := c.DefaultQuery("category", "all")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	logs := h.store.Query(category, limit)
	if logs == nil {
		logs = []model.LogEvent{}
	}

	c.JSON(http.StatusOK, model.LogQueryResponse{
		Logs:     logs,
		Total:    h.store.Total(),
		Category: category,
	})
}

// Stats godoc
// @Summary Per-category log statistics
// @Tags logging
// @Produce json
// @Success 200 {object} model.LogStats
// @Router /stats [get]
func (h *LoggingHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// Health godoc
// @Summary Liveness probe
// @Tags logging
// @Produce json
// @Success 200 {object} model.LogHealthResponse
// @Router /health [get]
func (h *LoggingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.LogHealthResponse{
		Status:    "ok",
		Service:   "logging",
		Timestamp: time.Now(),
	})
}

// fillDefaults - 필수 아닌 필드 기본값 채움 (id, timestamp, level)
func fillDefaults(event model.LogEvent) model.LogEvent {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == "" {
		event.Level = model.LogLevelInfo
	}
	return event
}
