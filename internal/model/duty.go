package model

import "time"

// OnDutyStatus - 사용자별 근무 중 여부
// 사용자가 직접 토글, 세션 외 별도 생명주기 없음
type OnDutyStatus struct {
	UserID    string    `json:"userId"`
	IsOnDuty  bool      `json:"isOnDuty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToggleDutyRequest - 근무 상태 토글 요청
type ToggleDutyRequest struct {
	IsOnDuty *bool `json:"isOnDuty" binding:"required"`
}
