package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hospital-alert/backend/internal/model"
)

// batchCapture - /log/batch 수신 내용을 기록하는 테스트 서버 핸들러
type batchCapture struct {
	mu      sync.Mutex
	batches []model.BatchLogRequest
	headers []http.Header
}

func (b *batchCapture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/log/batch" {
		http.NotFound(w, r)
		return
	}

	var req model.BatchLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.batches = append(b.batches, req)
	b.headers = append(b.headers, r.Header.Clone())
	b.mu.Unlock()

	json.NewEncoder(w).Encode(model.BatchLogResponse{Success: true, Count: len(req.Events)})
}

func (b *batchCapture) snapshot() ([]model.BatchLogRequest, []http.Header) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.BatchLogRequest(nil), b.batches...), append([]http.Header(nil), b.headers...)
}

func TestEmitFlushesOnShutdown(t *testing.T) {
	capture := &batchCapture{}
	server := httptest.NewServer(capture)
	defer server.Close()

	telemetry := NewTelemetryClient(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		telemetry.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		telemetry.Emit(model.LogEvent{
			Level:    model.LogLevelInfo,
			Service:  "alert-backend",
			Category: "alerts",
			Message:  "event",
		})
	}

	// ctx 취소 시 버퍼 잔여분까지 drain 후 마지막 flush
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	batches, headers := capture.snapshot()
	total := 0
	for _, batch := range batches {
		total += len(batch.Events)
	}
	if total != 3 {
		t.Fatalf("received %d events, want 3", total)
	}
	for _, h := range headers {
		if h.Get("X-Batch-ID") == "" {
			t.Fatal("batch request missing X-Batch-ID header")
		}
		if h.Get("X-Retry-Count") != "0" {
			t.Fatalf("X-Retry-Count = %s, want 0 on first attempt", h.Get("X-Retry-Count"))
		}
	}
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	// Run 워커 없이 버퍼 용량을 넘겨 적재 - 블로킹 없이 반환되어야 함
	telemetry := NewTelemetryClient("http://127.0.0.1:0")

	doneCh := make(chan struct{})
	go func() {
		for i := 0; i < telemetryBufferSize*2; i++ {
			telemetry.Emit(model.LogEvent{Message: "overflow"})
		}
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit must never block")
	}
	if len(telemetry.buffer) != telemetryBufferSize {
		t.Fatalf("buffer len = %d, want %d", len(telemetry.buffer), telemetryBufferSize)
	}
}

func TestSendSingleEvent(t *testing.T) {
	var received model.LogEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/log" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(model.SingleLogResponse{Success: true})
	}))
	defer server.Close()

	telemetry := NewTelemetryClient(server.URL)
	event := model.LogEvent{Level: model.LogLevelWarn, Category: "auth", Message: "login failed"}
	if err := telemetry.Send(event); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if received.Category != "auth" || received.Message != "login failed" {
		t.Fatalf("unexpected payload: %+v", received)
	}
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	telemetry := NewTelemetryClient(server.URL)
	if err := telemetry.Send(model.LogEvent{Message: "x"}); err == nil {
		t.Fatal("Send must return an error on non-200 response")
	}
}
