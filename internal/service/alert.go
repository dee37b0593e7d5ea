// 알림 생명주기 상태 머신 + 에스컬레이션 스윕
//
// 상태 전이: active → acknowledged → resolved (선형, 역방향 없음)
//   - create: operator 동급 역할만 가능, tier=0으로 시작
//   - acknowledge: active에서만, doctor/nurse/head_doctor
//   - resolve: acknowledged에서만(사전 acknowledge 필수 정책), doctor/head_doctor
//   - 잘못된 전이는 ErrConflict, 상태 변경 없음
//
// 모든 전이와 단계 상승은 WebSocket 허브로 fan-out되고
// 로깅 수집 서버로 텔레메트리 이벤트가 전송됨 (둘 다 best-effort)
//
// 동일 알림의 이벤트 발행 순서는 변경 순서와 일치해야 하므로
// Publish는 알림별 뮤텍스를 잡은 채로 호출함 (허브 Publish는 논블로킹)

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/store"
)

// eventPublisher - WebSocket 허브 인터페이스 (fan-out 전용)
type eventPublisher interface {
	Publish(event model.AlertEvent)
}

// alertArchiver - Postgres 감사 이력 인터페이스 (db 레이어)
type alertArchiver interface {
	SaveAlert(ctx context.Context, alert *model.Alert) error
	SaveEscalation(ctx context.Context, alertID string, event model.EscalationEvent) error
	GetEscalationHistory(ctx context.Context, alertID string) ([]model.EscalationEvent, error)
	GetAlertHospital(ctx context.Context, alertID string) (string, error)
}

// telemetrySink - 로깅 수집 서버로 이벤트를 전달하는 클라이언트 인터페이스
type telemetrySink interface {
	Emit(event model.LogEvent)
}

// AlertService 구조체 정의
type AlertService struct {
	store     *store.AlertStore
	policy    EscalationPolicy
	publisher eventPublisher
	archive   alertArchiver
	telemetry telemetrySink
}

// AlertService 객체 생성
// publisher, archive, telemetry는 nil 허용 (미설정 시 해당 부수효과 생략)
func NewAlertService(alertStore *store.AlertStore, policy EscalationPolicy, publisher eventPublisher, archive alertArchiver, telemetry telemetrySink) *AlertService {
	return &AlertService{
		store:     alertStore,
		policy:    policy,
		publisher: publisher,
		archive:   archive,
		telemetry: telemetry,
	}
}

// inScope - 병원 스코프 판정 (admin은 전 병원 접근 가능)
func inScope(actor *model.AuthUser, hospitalID string) bool {
	return actor.Role == model.RoleAdmin || actor.HospitalID == hospitalID
}

// Create - 알림 생성
// admin 외에는 요청 바디의 hospitalId를 무시하고 토큰의 병원으로 고정
func (s *AlertService) Create(ctx context.Context, actor *model.AuthUser, req model.CreateAlertRequest) (*model.Alert, error) {
	if !CanCreateAlert(actor.Role) {
		return nil, ErrForbidden
	}
	if req.UrgencyLevel < 1 || req.UrgencyLevel > 5 {
		return nil, ErrInvalidInput
	}

	hospitalID := req.HospitalID
	if actor.Role != model.RoleAdmin {
		if actor.HospitalID == "" {
			return nil, ErrForbidden
		}
		hospitalID = actor.HospitalID
	}

	now := time.Now()
	tiers := s.policy.TiersFor(req.UrgencyLevel)

	alert := &model.Alert{
		ID:                    uuid.NewString(),
		HospitalID:            hospitalID,
		RoomNumber:            req.RoomNumber,
		AlertType:             req.AlertType,
		UrgencyLevel:          req.UrgencyLevel,
		Description:           req.Description,
		Status:                model.AlertStatusActive,
		CreatedAt:             now,
		CreatedBy:             actor.LoginID,
		CurrentEscalationTier: 0,
		NextEscalationAt:      NextDeadline(now, 0, tiers),
		Escalations:           []model.EscalationEvent{},
	}

	s.store.Insert(alert)
	log.Printf("Created alert (alert_id=%s, hospital_id=%s, urgency=%d, room=%s)",
		alert.ID, alert.HospitalID, alert.UrgencyLevel, alert.RoomNumber)

	snapshot := snapshotAlert(alert)
	s.publish(model.AlertEventCreated, snapshot, now)
	s.archiveAlert(ctx, snapshot)
	s.emitTelemetry(snapshot, "alert created")
	return snapshot, nil
}

// Get - 알림 단건 조회
// 다른 병원의 알림은 존재 여부를 노출하지 않기 위해 not found로 처리
func (s *AlertService) Get(actor *model.AuthUser, id string) (*model.Alert, error) {
	alert, err := s.store.Get(id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !inScope(actor, alert.HospitalID) {
		return nil, ErrNotFound
	}
	return alert, nil
}

// List - 알림 목록 조회 (최신순)
func (s *AlertService) List(filter store.AlertFilter) []model.Alert {
	return s.store.List(filter)
}

// Acknowledge - 알림 확인 처리, 에스컬레이션 동결
func (s *AlertService) Acknowledge(ctx context.Context, actor *model.AuthUser, id string) (*model.Alert, error) {
	now := time.Now()

	updated, err := s.store.Update(id, func(alert *model.Alert) error {
		// 1. 병원 스코프 검사 (다른 병원 알림은 not found 처리)
		if !inScope(actor, alert.HospitalID) {
			return ErrNotFound
		}
		// 2. 상태 전이 유효성 검사 (이미 처리된 알림이면 변경 없이 거절)
		if alert.Status != model.AlertStatusActive {
			return fmt.Errorf("%w: alert is %s", ErrConflict, alert.Status)
		}
		// 3. 역할 권한 검사
		if !CanTransition(actor.Role, alert.Status, model.AlertStatusAcknowledged) {
			return ErrForbidden
		}

		// 4. 전이 적용 - acknowledged 시점에 단계 동결
		alert.Status = model.AlertStatusAcknowledged
		alert.AcknowledgedAt = &now
		alert.AcknowledgedBy = actor.LoginID
		alert.NextEscalationAt = nil

		s.publish(model.AlertEventAcknowledged, snapshotAlert(alert), now)
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("Acknowledged alert (alert_id=%s, by=%s, tier=%d)", id, actor.LoginID, updated.CurrentEscalationTier)
	s.archiveAlert(ctx, updated)
	s.emitTelemetry(updated, "alert acknowledged")
	return updated, nil
}

// Resolve - 알림 해결 처리 (사전 acknowledge 필수)
func (s *AlertService) Resolve(ctx context.Context, actor *model.AuthUser, id, resolution string) (*model.Alert, error) {
	now := time.Now()

	updated, err := s.store.Update(id, func(alert *model.Alert) error {
		if !inScope(actor, alert.HospitalID) {
			return ErrNotFound
		}
		// resolved에 대한 재-resolve는 멱등 거절 (resolvedAt 중복 기록 없음)
		if alert.Status == model.AlertStatusResolved {
			return fmt.Errorf("%w: already resolved", ErrConflict)
		}
		// acknowledge 없이 바로 resolve는 허용하지 않음
		if alert.Status != model.AlertStatusAcknowledged {
			return fmt.Errorf("%w: alert must be acknowledged first", ErrConflict)
		}
		if !CanTransition(actor.Role, alert.Status, model.AlertStatusResolved) {
			return ErrForbidden
		}

		alert.Status = model.AlertStatusResolved
		alert.ResolvedAt = &now
		alert.ResolvedBy = actor.LoginID
		alert.Resolution = resolution
		alert.NextEscalationAt = nil

		s.publish(model.AlertEventResolved, snapshotAlert(alert), now)
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("Resolved alert (alert_id=%s, by=%s)", id, actor.LoginID)
	s.archiveAlert(ctx, updated)
	s.emitTelemetry(updated, "alert resolved")
	return updated, nil
}

// EscalationHistory - 알림의 에스컬레이션 이력 조회
// 인메모리 알림이 있으면 라이브 이력, 없으면(재기동 이후 등) 감사 이력에서 조회
// 병원 스코프 밖이거나 어디에도 기록이 없으면 not found 처리
func (s *AlertService) EscalationHistory(ctx context.Context, actor *model.AuthUser, id string) ([]model.EscalationEvent, error) {
	if alert, err := s.store.Get(id); err == nil {
		if !inScope(actor, alert.HospitalID) {
			return nil, ErrNotFound
		}
		return alert.Escalations, nil
	}
	if s.archive == nil {
		return nil, ErrNotFound
	}

	// 감사 이력 경로에서도 스코프는 알림 레코드의 병원으로 판정
	hospitalID, err := s.archive.GetAlertHospital(ctx, id)
	if err != nil || !inScope(actor, hospitalID) {
		return nil, ErrNotFound
	}

	history, err := s.archive.GetEscalationHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Escalate - 수동 에스컬레이션 (head_doctor/admin)
func (s *AlertService) Escalate(ctx context.Context, actor *model.AuthUser, id string) (*model.Alert, error) {
	if !CanEscalateManually(actor.Role) {
		return nil, ErrForbidden
	}

	now := time.Now()
	var appended []model.EscalationEvent

	updated, err := s.store.Update(id, func(alert *model.Alert) error {
		if !inScope(actor, alert.HospitalID) {
			return ErrNotFound
		}
		if alert.Status != model.AlertStatusActive {
			return fmt.Errorf("%w: alert is %s", ErrConflict, alert.Status)
		}

		tiers := s.policy.TiersFor(alert.UrgencyLevel)
		if alert.CurrentEscalationTier >= len(tiers) {
			return fmt.Errorf("%w: already at final tier", ErrConflict)
		}

		event := model.EscalationEvent{
			Tier:          alert.CurrentEscalationTier + 1,
			TriggeredAt:   now,
			NotifiedRoles: tiers[alert.CurrentEscalationTier].NotifyRoles,
			Reason:        model.EscalationReasonManual,
		}
		applyEscalation(alert, event, tiers)
		appended = append(appended, event)

		s.publish(model.AlertEventEscalated, snapshotAlert(alert), now)
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.afterEscalation(ctx, updated, appended)
	return updated, nil
}

// RunEscalationSweep - 고정 주기로 active 알림 전체를 스캔하는 스윕 루프
// 알림별 타이머 대신 단일 티커로 자원 사용을 제한
func (s *AlertService) RunEscalationSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Escalation sweep started (interval=%s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Escalation sweep stopped")
			return
		case now := <-ticker.C:
			s.SweepOnce(ctx, now)
		}
	}
}

// SweepOnce - 스윕 1회 수행
// 스윕 도중 acknowledge된 알림은 fire 시점의 상태 재확인으로 자연히 무시됨
func (s *AlertService) SweepOnce(ctx context.Context, now time.Time) {
	for _, id := range s.store.ActiveIDs() {
		var appended []model.EscalationEvent

		updated, err := s.store.Update(id, func(alert *model.Alert) error {
			tiers := s.policy.TiersFor(alert.UrgencyLevel)

			// 타임아웃이 여러 번 지났어도 한 단계씩 catch-up
			// (단계마다 EscalationEvent를 하나씩 남겨 감사 이력 보존)
			for {
				eval := Evaluate(alert, tiers, now)
				if !eval.ShouldEscalate {
					alert.NextEscalationAt = eval.NextEscalationAt
					return nil
				}

				base := escalationBase(alert)
				scheduled := base.Add(time.Duration(tiers[alert.CurrentEscalationTier].TimeoutSeconds) * time.Second)
				event := model.EscalationEvent{
					Tier:          eval.NextTier,
					TriggeredAt:   scheduled,
					NotifiedRoles: tiers[alert.CurrentEscalationTier].NotifyRoles,
					Reason:        model.EscalationReasonTimeout,
				}
				applyEscalation(alert, event, tiers)
				appended = append(appended, event)

				s.publish(model.AlertEventEscalated, snapshotAlert(alert), now)
			}
		})
		if err != nil {
			// ActiveIDs 스냅샷 이후 상태가 바뀐 알림은 건너뜀
			continue
		}

		if len(appended) > 0 {
			s.afterEscalation(ctx, updated, appended)
		}
	}
}

// applyEscalation - 단계 상승 1회 적용 (append-only 이력 + 단조 증가 tier)
func applyEscalation(alert *model.Alert, event model.EscalationEvent, tiers []TierConfig) {
	alert.Escalations = append(alert.Escalations, event)
	alert.CurrentEscalationTier = event.Tier
	alert.NextEscalationAt = NextDeadline(event.TriggeredAt, event.Tier, tiers)
}

func (s *AlertService) afterEscalation(ctx context.Context, alert *model.Alert, events []model.EscalationEvent) {
	for _, event := range events {
		log.Printf("Escalated alert (alert_id=%s, tier=%d, reason=%s, notify=%v)",
			alert.ID, event.Tier, event.Reason, event.NotifiedRoles)
		if s.archive != nil {
			if err := s.archive.SaveEscalation(ctx, alert.ID, event); err != nil {
				// 감사 이력 저장 실패해도 에스컬레이션 자체는 계속 진행
				log.Printf("Failed to save escalation to DB: %v", err)
			}
		}
	}

	s.archiveAlert(ctx, alert)
	s.emitTelemetry(alert, "alert escalated")
}

func (s *AlertService) publish(eventType model.AlertEventType, alert *model.Alert, occurredAt time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(model.AlertEvent{
		AlertID:    alert.ID,
		HospitalID: alert.HospitalID,
		Type:       eventType,
		Payload:    alert,
		OccurredAt: occurredAt,
	})
}

func (s *AlertService) archiveAlert(ctx context.Context, alert *model.Alert) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveAlert(ctx, alert); err != nil {
		// DB 저장 실패해도 요청 처리는 계속 진행
		log.Printf("Failed to save alert to DB: %v", err)
	}
}

func (s *AlertService) emitTelemetry(alert *model.Alert, message string) {
	if s.telemetry == nil {
		return
	}
	s.telemetry.Emit(model.LogEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Level:      model.LogLevelInfo,
		Service:    "alert-backend",
		Category:   "alerts",
		Message:    message,
		HospitalID: alert.HospitalID,
		Metadata: map[string]any{
			"alertId": alert.ID,
			"status":  string(alert.Status),
			"tier":    alert.CurrentEscalationTier,
		},
	})
}

func snapshotAlert(alert *model.Alert) *model.Alert {
	dup := *alert
	if alert.Escalations != nil {
		dup.Escalations = make([]model.EscalationEvent, len(alert.Escalations))
		copy(dup.Escalations, alert.Escalations)
	}
	return &dup
}

func mapStoreErr(err error) error {
	if err == store.ErrAlertNotFound {
		return ErrNotFound
	}
	return err
}
