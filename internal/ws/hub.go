// 실시간 알림 팬아웃 허브
// 병원 단위로 구독 클라이언트 채널을 유지하고, 상태 머신/에스컬레이션 엔진이
// 발행한 이벤트를 해당 병원의 모든 클라이언트에 전달
//
// 전달 보장:
//   - 동일 알림에 대한 이벤트는 발행 순서 그대로 전달 (클라이언트별 단일 writer)
//   - at-least-once - ack 프로토콜 없음, 놓친 이벤트는 재접속 시 REST 재조회로 보정
//   - 느린 클라이언트는 버퍼가 가득 차는 즉시 연결 해제 (다른 클라이언트를 막지 않음)

package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hospital-alert/backend/internal/model"
)

const (
	// sendBufferSize - 클라이언트별 송신 버퍼, 초과 시 해당 클라이언트 제거
	sendBufferSize = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type Hub struct {
	mu sync.RWMutex

	// hospitals - hospitalID → 구독 클라이언트 집합
	hospitals map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		hospitals: make(map[string]map[*Client]struct{}),
	}
}

// Register - 업그레이드된 연결을 병원 스코프에 등록하고 펌프 고루틴 시작
func (h *Hub) Register(conn *websocket.Conn, hospitalID, userID string) *Client {
	client := &Client{
		hub:        h,
		conn:       conn,
		hospitalID: hospitalID,
		userID:     userID,
		send:       make(chan model.AlertEvent, sendBufferSize),
	}

	h.mu.Lock()
	clients, ok := h.hospitals[hospitalID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.hospitals[hospitalID] = clients
	}
	clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	log.Printf("[WS] Client connected (hospital_id=%s, user_id=%s)", hospitalID, userID)
	return client
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	clients, ok := h.hospitals[client.hospitalID]
	if ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.hospitals, client.hospitalID)
			}
		}
	}
	h.mu.Unlock()
}

// Publish - 이벤트를 해당 병원의 모든 클라이언트에 fan-out
// 버퍼가 가득 찬 클라이언트는 제거 대상으로 수집 후 일괄 해제
func (h *Hub) Publish(event model.AlertEvent) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.hospitals[event.HospitalID] {
		select {
		case client.send <- event:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Printf("[WS] Dropping slow client (hospital_id=%s, user_id=%s)", client.hospitalID, client.userID)
		h.unregister(client)
		client.conn.Close()
	}
}

// ClientCount - 병원별 접속 클라이언트 수
func (h *Hub) ClientCount(hospitalID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.hospitals[hospitalID])
}

// Client - 접속 클라이언트 1개 (병원 스코프 + 버퍼 채널)
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	hospitalID string
	userID     string
	send       chan model.AlertEvent
}

// writePump - send 채널의 이벤트를 순서대로 전송, 주기적 ping 송신
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump - 클라이언트 수신 메시지는 pong 처리 및 종료 감지 용도로만 사용
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
