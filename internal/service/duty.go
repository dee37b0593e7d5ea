// 근무 상태(on-duty) 토글 로직
// 사용자 세션에 종속된 단순 상태라 인메모리로만 유지

package service

import (
	"log"
	"sync"
	"time"

	"github.com/hospital-alert/backend/internal/model"
)

type DutyService struct {
	mu       sync.RWMutex
	statuses map[string]model.OnDutyStatus
}

func NewDutyService() *DutyService {
	return &DutyService{
		statuses: make(map[string]model.OnDutyStatus),
	}
}

// Toggle - 근무 상태 설정
func (s *DutyService) Toggle(actor *model.AuthUser, isOnDuty bool) model.OnDutyStatus {
	status := model.OnDutyStatus{
		UserID:    actor.LoginID,
		IsOnDuty:  isOnDuty,
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	s.statuses[actor.LoginID] = status
	s.mu.Unlock()

	log.Printf("Toggled on-duty status (user_id=%s, on_duty=%v)", actor.LoginID, isOnDuty)
	return status
}

// Status - 현재 근무 상태 조회 (기록이 없으면 off-duty)
func (s *DutyService) Status(actor *model.AuthUser) model.OnDutyStatus {
	s.mu.RLock()
	status, ok := s.statuses[actor.LoginID]
	s.mu.RUnlock()

	if !ok {
		return model.OnDutyStatus{UserID: actor.LoginID, IsOnDuty: false}
	}
	return status
}
