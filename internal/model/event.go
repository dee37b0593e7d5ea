// WebSocket으로 전파되는 알림 도메인 이벤트 구조체를 정의

package model

import "time"

// AlertEventType - 상태 머신/에스컬레이션 엔진이 발행하는 이벤트 타입
type AlertEventType string

const (
	AlertEventCreated      AlertEventType = "alert.created"
	AlertEventAcknowledged AlertEventType = "alert.acknowledged"
	AlertEventResolved     AlertEventType = "alert.resolved"
	AlertEventEscalated    AlertEventType = "alert.escalated"
)

// AlertEvent - 병원 단위로 구독 클라이언트에 팬아웃되는 이벤트
// 동일 AlertID에 대한 이벤트는 발생 순서대로 전달됨
type AlertEvent struct {
	AlertID    string         `json:"alertId"`
	HospitalID string         `json:"hospitalId"`
	Type       AlertEventType `json:"type"`
	Payload    *Alert         `json:"payload"`
	OccurredAt time.Time      `json:"occurredAt"`
}
