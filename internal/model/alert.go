// 병원 알림(Alert) 도메인 구조체를 정의
// handler, service, store, db 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import "time"

// AlertStatus - 알림 생명주기 상태
// active → acknowledged → resolved 순서로만 전이 (역방향 전이 없음)
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Alert - 개별 병원 알림
// UrgencyLevel은 1~5, 1이 가장 긴급 (1에 가까울수록 에스컬레이션 타임아웃이 짧음)
type Alert struct {
	ID         string `json:"id"`
	HospitalID string `json:"hospitalId"`
	RoomNumber string `json:"roomNumber"`

	// - cardiac_arrest: 심정지
	// - code_blue: 코드 블루
	// - medical_emergency: 일반 응급
	// - security: 보안
	AlertType string `json:"alertType"`

	UrgencyLevel int         `json:"urgencyLevel"`
	Description  string      `json:"description"`
	Status       AlertStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`

	// acknowledged 전이 시각/담당자 (active 상태면 nil)
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`

	// resolved 전이 시각/담당자/조치 내용
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
	Resolution string     `json:"resolution,omitempty"`

	// CurrentEscalationTier - 현재 에스컬레이션 단계 (0부터 시작)
	// active 상태인 동안 단조 증가, acknowledged 시점에 동결
	CurrentEscalationTier int `json:"currentEscalationTier"`

	// NextEscalationAt - 다음 에스컬레이션 예정 시각
	// acknowledged/resolved 상태이거나 마지막 단계에 도달하면 nil
	NextEscalationAt *time.Time `json:"nextEscalationAt,omitempty"`

	// Escalations - 발생한 에스컬레이션 이력 (append-only)
	Escalations []EscalationEvent `json:"escalations"`
}

// EscalationEvent - 에스컬레이션 발생 기록
// 에스컬레이션 엔진만 생성 가능, 생성 이후 불변
type EscalationEvent struct {
	Tier          int       `json:"tier"`
	TriggeredAt   time.Time `json:"triggeredAt"`
	NotifiedRoles []string  `json:"notifiedRoles"`

	// Reason - timeout(미응답 타임아웃) 또는 manual(수동 에스컬레이션)
	Reason string `json:"reason"`
}

const (
	EscalationReasonTimeout = "timeout"
	EscalationReasonManual  = "manual"
)

// CreateAlertRequest - 알림 생성 요청
type CreateAlertRequest struct {
	HospitalID   string `json:"hospitalId" binding:"required"`
	RoomNumber   string `json:"roomNumber" binding:"required"`
	AlertType    string `json:"alertType" binding:"required"`
	UrgencyLevel int    `json:"urgencyLevel" binding:"required,min=1,max=5"`
	Description  string `json:"description"`
}

// ResolveAlertRequest - 알림 해결 요청
type ResolveAlertRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// AlertListResponse - 알림 목록 응답
type AlertListResponse struct {
	Alerts []Alert `json:"alerts"`
	Total  int     `json:"total"`
}

// EscalationHistoryResponse - 에스컬레이션 이력 응답
type EscalationHistoryResponse struct {
	AlertID     string            `json:"alertId"`
	Escalations []EscalationEvent `json:"escalations"`
}

// AlertEnvelope - 단일 알림 응답 (status + data 래핑)
type AlertEnvelope struct {
	Status string `json:"status"`
	Data   *Alert `json:"data"`
}
