// 로깅 수집 서버(loggingd)로 구조화 이벤트를 전달하는 클라이언트
//
// 동작:
//  1. Emit은 논블로킹 - 내부 버퍼에 적재만 하고 즉시 반환 (버퍼 초과 시 드롭)
//  2. 백그라운드 워커가 주기/건수 기준으로 묶어 POST /log/batch 전송
//  3. 전송 실패 시 제한 횟수만큼 재시도, X-Retry-Count 헤더로 횟수 전달
//     (서버는 중복 제거를 하지 않으므로 재시도는 중복 적재 가능 - 알려진 제약)

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hospital-alert/backend/internal/model"
)

const (
	telemetryBufferSize = 256
	batchMaxEvents      = 50
	flushInterval       = 3 * time.Second
	maxRetries          = 2
)

// TelemetryClient 구조체 정의
type TelemetryClient struct {
	baseURL    string
	httpClient *http.Client
	buffer     chan model.LogEvent
}

// TelemetryClient 객체 생성
func NewTelemetryClient(baseURL string) *TelemetryClient {
	return &TelemetryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		buffer: make(chan model.LogEvent, telemetryBufferSize),
	}
}

// Emit - 이벤트 1건 적재 (논블로킹, 버퍼가 가득 차면 드롭)
func (c *TelemetryClient) Emit(event model.LogEvent) {
	select {
	case c.buffer <- event:
	default:
		log.Printf("[Telemetry] Buffer full, dropping event (category=%s)", event.Category)
	}
}

// Run - 배치 전송 워커 루프, ctx 취소 시 잔여 이벤트 flush 후 종료
func (c *TelemetryClient) Run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var pending []model.LogEvent
	for {
		select {
		case <-ctx.Done():
			c.drain(&pending)
			c.flush(pending)
			return
		case event := <-c.buffer:
			pending = append(pending, event)
			if len(pending) >= batchMaxEvents {
				c.flush(pending)
				pending = nil
			}
		case <-ticker.C:
			if len(pending) > 0 {
				c.flush(pending)
				pending = nil
			}
		}
	}
}

func (c *TelemetryClient) drain(pending *[]model.LogEvent) {
	for {
		select {
		case event := <-c.buffer:
			*pending = append(*pending, event)
		default:
			return
		}
	}
}

// flush - 배치 1건 전송 (재시도 포함)
func (c *TelemetryClient) flush(events []model.LogEvent) {
	if len(events) == 0 {
		return
	}

	body, err := json.Marshal(model.BatchLogRequest{Events: events})
	if err != nil {
		log.Printf("[Telemetry] Failed to marshal batch: %v", err)
		return
	}

	batchID := uuid.NewString()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.postBatch(body, batchID, attempt); err != nil {
			log.Printf("[Telemetry] Batch send failed (batch_id=%s, retry=%d): %v", batchID, attempt, err)
			continue
		}
		return
	}
	log.Printf("[Telemetry] Dropping batch after %d retries (batch_id=%s, count=%d)", maxRetries, batchID, len(events))
}

func (c *TelemetryClient) postBatch(body []byte, batchID string, retryCount int) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/log/batch", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Batch-ID", batchID)
	req.Header.Set("X-Retry-Count", strconv.Itoa(retryCount))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Send - 단건 즉시 전송 (POST /log)
func (c *TelemetryClient) Send(event model.LogEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/log", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
