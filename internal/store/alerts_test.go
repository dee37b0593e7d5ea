package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hospital-alert/backend/internal/model"
)

func seedAlert(id, hospitalID string, status model.AlertStatus, createdAt time.Time) *model.Alert {
	return &model.Alert{
		ID:         id,
		HospitalID: hospitalID,
		Status:     status,
		CreatedAt:  createdAt,
	}
}

func TestListFilterAndOrder(t *testing.T) {
	s := NewAlertStore()
	now := time.Now()

	s.Insert(seedAlert("a1", "h-1", model.AlertStatusActive, now.Add(-2*time.Minute)))
	s.Insert(seedAlert("a2", "h-1", model.AlertStatusResolved, now.Add(-1*time.Minute)))
	s.Insert(seedAlert("a3", "h-2", model.AlertStatusActive, now))

	all := s.List(AlertFilter{})
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != "a3" {
		t.Fatalf("list must be newest first, got %s", all[0].ID)
	}

	h1Active := s.List(AlertFilter{HospitalID: "h-1", Status: model.AlertStatusActive})
	if len(h1Active) != 1 || h1Active[0].ID != "a1" {
		t.Fatalf("filter mismatch: %+v", h1Active)
	}

	limited := s.List(AlertFilter{Limit: 2})
	if len(limited) != 2 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewAlertStore()
	s.Insert(seedAlert("a1", "h-1", model.AlertStatusActive, time.Now()))

	first, _ := s.Get("a1")
	first.Status = model.AlertStatusResolved

	second, _ := s.Get("a1")
	if second.Status != model.AlertStatusActive {
		t.Fatalf("caller mutation leaked into store")
	}
}

func TestUpdateErrorLeavesStateUntouched(t *testing.T) {
	s := NewAlertStore()
	s.Insert(seedAlert("a1", "h-1", model.AlertStatusActive, time.Now()))

	wantErr := errors.New("rejected")
	_, err := s.Update("a1", func(alert *model.Alert) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	if _, err := s.Update("missing", func(*model.Alert) error { return nil }); err != ErrAlertNotFound {
		t.Fatalf("err = %v, want ErrAlertNotFound", err)
	}
}

func TestConcurrentUpdatesSerialized(t *testing.T) {
	s := NewAlertStore()
	s.Insert(seedAlert("a1", "h-1", model.AlertStatusActive, time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("a1", func(alert *model.Alert) error {
				alert.CurrentEscalationTier++
				return nil
			})
		}()
	}
	wg.Wait()

	alert, _ := s.Get("a1")
	if alert.CurrentEscalationTier != 50 {
		t.Fatalf("lost updates: tier = %d, want 50", alert.CurrentEscalationTier)
	}
}

// -race 환경에서 읽기/변경 동시 실행이 안전한지 검증
// (Update는 copy-on-write이므로 Get/List/ActiveIDs와 같은 구조체를 공유하지 않음)
func TestConcurrentReadsDuringUpdates(t *testing.T) {
	s := NewAlertStore()
	s.Insert(seedAlert("a1", "h-1", model.AlertStatusActive, time.Now()))

	const writes = 200
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < writes; i++ {
			s.Update("a1", func(alert *model.Alert) error {
				alert.Escalations = append(alert.Escalations, model.EscalationEvent{
					Tier:        alert.CurrentEscalationTier + 1,
					TriggeredAt: time.Now(),
				})
				alert.CurrentEscalationTier++
				return nil
			})
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				alert, err := s.Get("a1")
				if err != nil {
					t.Errorf("get failed: %v", err)
					return
				}
				// 스냅샷 내부 일관성: tier와 이력 길이는 항상 일치
				if len(alert.Escalations) != alert.CurrentEscalationTier {
					t.Errorf("torn snapshot: tier=%d, history=%d",
						alert.CurrentEscalationTier, len(alert.Escalations))
					return
				}
				s.List(AlertFilter{HospitalID: "h-1"})
				s.ActiveIDs()
			}
		}()
	}
	wg.Wait()

	alert, _ := s.Get("a1")
	if alert.CurrentEscalationTier != writes {
		t.Fatalf("tier = %d, want %d", alert.CurrentEscalationTier, writes)
	}
}

func TestInsertDetachesCallerPointer(t *testing.T) {
	s := NewAlertStore()
	seed := seedAlert("a1", "h-1", model.AlertStatusActive, time.Now())
	s.Insert(seed)

	seed.Status = model.AlertStatusResolved

	alert, _ := s.Get("a1")
	if alert.Status != model.AlertStatusActive {
		t.Fatalf("caller pointer must not alias stored state")
	}
}

func TestActiveIDs(t *testing.T) {
	s := NewAlertStore()
	now := time.Now()
	s.Insert(seedAlert("a1", "h-1", model.AlertStatusActive, now))
	s.Insert(seedAlert("a2", "h-1", model.AlertStatusAcknowledged, now))

	ids := s.ActiveIDs()
	if len(ids) != 1 || ids[0] != "a1" {
		t.Fatalf("activeIDs = %v, want [a1]", ids)
	}
}
