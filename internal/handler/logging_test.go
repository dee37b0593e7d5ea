package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/store"
)

func newLoggingRouter(maxSize int) (*gin.Engine, *store.LogStore) {
	gin.SetMode(gin.TestMode)
	logStore := store.NewLogStore(maxSize, time.Hour, nil)
	h := NewLoggingHandler(logStore)

	r := gin.New()
	r.POST("/log", h.Log)
	r.POST("/log/batch", h.LogBatch)
	r.GET("/logs", h.Logs)
	r.GET("/stats", h.Stats)
	r.GET("/health", h.Health)
	return r, logStore
}

func postJSON(t *testing.T, r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSingleLogIngestion(t *testing.T) {
	r, logStore := newLoggingRouter(100)

	w := postJSON(t, r, "/log", `{"level":"info","service":"app","category":"auth","message":"login ok"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp model.SingleLogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Success {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	if logStore.Total() != 1 {
		t.Fatalf("total = %d, want 1", logStore.Total())
	}
}

func TestSingleLogMalformedBody(t *testing.T) {
	r, logStore := newLoggingRouter(100)

	w := postJSON(t, r, "/log", `{not json`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if logStore.Total() != 0 {
		t.Fatalf("malformed body must not be stored")
	}
}

func TestBatchIngestionCount(t *testing.T) {
	r, _ := newLoggingRouter(100)

	body := `{"events":[
		{"level":"info","category":"auth","message":"e1"},
		{"level":"warn","category":"auth","message":"e2"},
		{"level":"error","category":"api","message":"e3"}
	]}`
	w := postJSON(t, r, "/log/batch", body, map[string]string{
		"X-Batch-ID":    "batch-7",
		"X-Retry-Count": "1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp model.BatchLogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 3 || resp.BatchID != "batch-7" {
		t.Fatalf("count=%d batchId=%s, want 3/batch-7", resp.Count, resp.BatchID)
	}
	if resp.Stats.TotalLogs != 3 {
		t.Fatalf("stats.totalLogs = %d, want 3", resp.Stats.TotalLogs)
	}
}

func TestBatchIngestionInvalidShape(t *testing.T) {
	r, _ := newLoggingRouter(100)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing-events", body: `{}`},
		{name: "events-not-array", body: `{"events":"nope"}`},
		{name: "not-json", body: `garbage`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postJSON(t, r, "/log/batch", tt.body, nil); w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLogsQueryCategoryAndLimit(t *testing.T) {
	r, _ := newLoggingRouter(100)

	for _, msg := range []string{"first", "second", "third"} {
		postJSON(t, r, "/log", `{"level":"info","category":"auth","message":"`+msg+`"}`, nil)
	}
	postJSON(t, r, "/log", `{"level":"info","category":"api","message":"other"}`, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logs?category=auth&limit=2", nil)
	r.ServeHTTP(w, req)

	var resp model.LogQueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Logs) != 2 {
		t.Fatalf("len = %d, want 2", len(resp.Logs))
	}
	if resp.Logs[0].Message != "third" {
		t.Fatalf("logs must be newest first, got %s", resp.Logs[0].Message)
	}
	if resp.Category != "auth" {
		t.Fatalf("category = %s, want auth", resp.Category)
	}
}

func TestStatsAfterRotation(t *testing.T) {
	r, logStore := newLoggingRouter(5)

	for i := 0; i < 10; i++ {
		postJSON(t, r, "/log", `{"level":"info","category":"api","message":"e"}`, nil)
	}
	logStore.Rotate(time.Now())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	r.ServeHTTP(w, req)

	var stats model.LogStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if stats.TotalLogs > 5 {
		t.Fatalf("totalLogs = %d, want <= 5", stats.TotalLogs)
	}
}

func TestLoggingHealth(t *testing.T) {
	r, _ := newLoggingRouter(100)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp model.LogHealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Status != "ok" || resp.Service != "logging" {
		t.Fatalf("unexpected health body: %+v", resp)
	}
}
