// 알림 인메모리 저장소
// 단일 인스턴스 설계 - 라이브 알림 상태의 원본은 메모리, Postgres는 감사 이력 용도(db 패키지)
//
// 동시성:
//   - 맵 접근은 store 단위 RWMutex로 보호
//   - 알림 1건에 대한 변경(acknowledge/resolve/escalate)은 알림별 뮤텍스로 직렬화
//     (스윕이 트리거한 에스컬레이션과 동시 acknowledge의 lost update 방지)
//   - 맵에 저장된 구조체는 불변 스냅샷 - Update는 복사본을 수정한 뒤
//     store 뮤텍스 아래에서 교체(copy-on-write)하므로 Get/List/ActiveIDs는
//     알림별 뮤텍스 없이 RLock만으로 안전하게 읽음

package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/hospital-alert/backend/internal/model"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*model.Alert
	locks  map[string]*sync.Mutex
}

func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*model.Alert),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Insert - 신규 알림 저장
// 호출자 포인터와의 공유를 끊기 위해 복사본을 저장
func (s *AlertStore) Insert(alert *model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[alert.ID] = copyAlert(alert)
	s.locks[alert.ID] = &sync.Mutex{}
}

// Get - 알림 조회 (호출자 격리를 위해 복사본 반환)
func (s *AlertStore) Get(id string) (*model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	return copyAlert(alert), nil
}

// AlertFilter - 목록 조회 필터
type AlertFilter struct {
	HospitalID string
	Status     model.AlertStatus
	Limit      int
}

// List - 알림 목록 조회 (생성 시각 기준 최신순)
func (s *AlertStore) List(filter AlertFilter) []model.Alert {
	s.mu.RLock()
	matched := make([]*model.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if filter.HospitalID != "" && alert.HospitalID != filter.HospitalID {
			continue
		}
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		matched = append(matched, alert)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]model.Alert, 0, len(matched))
	for _, alert := range matched {
		out = append(out, *copyAlert(alert))
	}
	return out
}

// ActiveIDs - active 상태 알림 ID 스냅샷 (에스컬레이션 스윕용)
func (s *AlertStore) ActiveIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, alert := range s.alerts {
		if alert.Status == model.AlertStatusActive {
			ids = append(ids, id)
		}
	}
	return ids
}

// Update - 알림 1건 변경, 알림별 뮤텍스로 직렬화
// fn이 에러를 반환하면 변경 없이 그대로 전파 (fn 내부는 전체 검증 후 마지막에 변경할 것)
// 커밋된 구조체는 직접 수정하지 않음 - 복사본에 fn을 적용한 뒤 교체하므로
// 동시 Get/List와 경합하지 않음. 변경 후 상태의 복사본을 반환
func (s *AlertStore) Update(id string, fn func(*model.Alert) error) (*model.Alert, error) {
	s.mu.RLock()
	lock, ok := s.locks[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrAlertNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current := s.alerts[id]
	s.mu.RUnlock()

	draft := copyAlert(current)
	if err := fn(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.alerts[id] = draft
	s.mu.Unlock()

	return copyAlert(draft), nil
}

func copyAlert(alert *model.Alert) *model.Alert {
	dup := *alert
	if alert.Escalations != nil {
		dup.Escalations = make([]model.EscalationEvent, len(alert.Escalations))
		copy(dup.Escalations, alert.Escalations)
	}
	return &dup
}
