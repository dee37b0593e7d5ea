// 로깅 수집 서버(loggingd)의 이벤트 페이로드 및 응답 구조체를 정의

package model

import "time"

// LogLevel - 로그 심각도
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEvent - 구조화 로그 이벤트
// 모든 API 호출 지점에서 생성 가능, category 단위 버킷에 append-only 저장
type LogEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Service   string         `json:"service"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	UserID     string `json:"userId,omitempty"`
	HospitalID string `json:"hospitalId,omitempty"`
	TraceID    string `json:"traceId,omitempty"`
	SpanID     string `json:"spanId,omitempty"`
}

// TRPCLogEvent - API 프로시저 호출 이벤트 (LogEvent 확장)
type TRPCLogEvent struct {
	LogEvent

	Procedure  string `json:"procedure"`
	Input      any    `json:"input,omitempty"`
	Output     any    `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Success    bool   `json:"success"`
}

// BatchLogRequest - POST /log/batch 요청 바디
type BatchLogRequest struct {
	Events []LogEvent `json:"events"`
}

// BatchLogResponse - POST /log/batch 응답
// BatchID는 X-Batch-ID 헤더 값을 그대로 반환 (중복 제거는 수행하지 않음)
type BatchLogResponse struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	BatchID string   `json:"batchId"`
	Stats   LogStats `json:"stats"`
}

// LogQueryResponse - GET /logs 응답 (최신순)
type LogQueryResponse struct {
	Logs     []LogEvent `json:"logs"`
	Total    int        `json:"total"`
	Category string     `json:"category"`
}

// CategoryStats - 카테고리별 통계
type CategoryStats struct {
	Count     int        `json:"count"`
	OldestLog *time.Time `json:"oldestLog"`
	NewestLog *time.Time `json:"newestLog"`
}

// LogStats - GET /stats 응답
type LogStats struct {
	TotalLogs  int                      `json:"totalLogs"`
	Categories map[string]CategoryStats `json:"categories"`
}

// LogHealthResponse - GET /health 응답
type LogHealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}
