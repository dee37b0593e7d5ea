package service

import (
	"testing"
	"time"

	"github.com/hospital-alert/backend/internal/model"
)

func testTiers() []TierConfig {
	return []TierConfig{
		{Tier: 1, TimeoutSeconds: 60, NotifyRoles: []string{"doctor"}},
		{Tier: 2, TimeoutSeconds: 120, NotifyRoles: []string{"head_doctor"}},
	}
}

func activeAlert(createdAt time.Time) *model.Alert {
	return &model.Alert{
		ID:           "a-1",
		HospitalID:   "h-1",
		UrgencyLevel: 1,
		Status:       model.AlertStatusActive,
		CreatedAt:    createdAt,
		Escalations:  []model.EscalationEvent{},
	}
}

func TestEvaluateBeforeTimeout(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)

	eval := Evaluate(alert, testTiers(), created.Add(30*time.Second))
	if eval.ShouldEscalate {
		t.Fatalf("should not escalate before timeout")
	}
	if eval.NextEscalationAt == nil || !eval.NextEscalationAt.Equal(created.Add(60*time.Second)) {
		t.Fatalf("nextEscalationAt = %v, want %v", eval.NextEscalationAt, created.Add(60*time.Second))
	}
}

func TestEvaluateAfterTimeout(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)

	// 61초 경과, 미응답 → tier 1로 에스컬레이션
	eval := Evaluate(alert, testTiers(), created.Add(61*time.Second))
	if !eval.ShouldEscalate {
		t.Fatalf("should escalate after timeout")
	}
	if eval.NextTier != 1 {
		t.Fatalf("nextTier = %d, want 1", eval.NextTier)
	}
}

func TestEvaluateOneTierAtATime(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)

	// 모든 타임아웃이 지났어도 평가 1회는 한 단계만 진행
	eval := Evaluate(alert, testTiers(), created.Add(1*time.Hour))
	if !eval.ShouldEscalate || eval.NextTier != 1 {
		t.Fatalf("expected single-step escalation to tier 1, got %+v", eval)
	}
}

func TestEvaluateFrozenAfterAcknowledge(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)
	alert.CurrentEscalationTier = 1
	alert.Escalations = []model.EscalationEvent{
		{Tier: 1, TriggeredAt: created.Add(60 * time.Second), Reason: model.EscalationReasonTimeout},
	}
	ackAt := created.Add(70 * time.Second)
	alert.AcknowledgedAt = &ackAt

	// acknowledge 이후 120초가 더 지나도 단계 동결
	eval := Evaluate(alert, testTiers(), created.Add(300*time.Second))
	if eval.ShouldEscalate {
		t.Fatalf("acknowledged alert must not escalate")
	}
	if eval.NextTier != 1 {
		t.Fatalf("tier changed after acknowledge: %d", eval.NextTier)
	}
	if eval.NextEscalationAt != nil {
		t.Fatalf("nextEscalationAt must be nil after acknowledge")
	}
}

func TestEvaluateElapsedBaseIsPreviousTier(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)
	alert.CurrentEscalationTier = 1
	alert.Escalations = []model.EscalationEvent{
		{Tier: 1, TriggeredAt: created.Add(60 * time.Second), Reason: model.EscalationReasonTimeout},
	}

	// tier 2 타임아웃(120초)의 기준점은 tier 1의 triggeredAt
	eval := Evaluate(alert, testTiers(), created.Add(170*time.Second))
	if eval.ShouldEscalate {
		t.Fatalf("should not escalate 110s after previous tier")
	}
	if eval.NextEscalationAt == nil || !eval.NextEscalationAt.Equal(created.Add(180*time.Second)) {
		t.Fatalf("nextEscalationAt = %v, want %v", eval.NextEscalationAt, created.Add(180*time.Second))
	}

	eval = Evaluate(alert, testTiers(), created.Add(181*time.Second))
	if !eval.ShouldEscalate || eval.NextTier != 2 {
		t.Fatalf("expected escalation to tier 2, got %+v", eval)
	}
}

func TestEvaluateNegativeElapsedClamped(t *testing.T) {
	// 시계 역행: createdAt이 now보다 미래여도 패닉 없이 0으로 클램프
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)

	eval := Evaluate(alert, testTiers(), created.Add(-10*time.Minute))
	if eval.ShouldEscalate {
		t.Fatalf("must not escalate with negative elapsed time")
	}
	if eval.NextEscalationAt == nil {
		t.Fatalf("nextEscalationAt must still be computed")
	}
}

func TestEvaluateNoTiersRemaining(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	alert := activeAlert(created)
	alert.CurrentEscalationTier = 2
	alert.Escalations = []model.EscalationEvent{
		{Tier: 1, TriggeredAt: created.Add(60 * time.Second)},
		{Tier: 2, TriggeredAt: created.Add(180 * time.Second)},
	}

	eval := Evaluate(alert, testTiers(), created.Add(1*time.Hour))
	if eval.ShouldEscalate {
		t.Fatalf("must not escalate past final tier")
	}
	if eval.NextEscalationAt != nil {
		t.Fatalf("nextEscalationAt must be nil at final tier")
	}
}

func TestTiersForClampsUnknownUrgency(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name    string
		urgency int
	}{
		{name: "configured", urgency: 1},
		{name: "above-range", urgency: 9},
		{name: "zero", urgency: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tiers := policy.TiersFor(tt.urgency); len(tiers) == 0 {
				t.Fatalf("TiersFor(%d) returned empty table", tt.urgency)
			}
		})
	}
}

func TestUrgencyOneHasFastestTimeouts(t *testing.T) {
	policy := DefaultPolicy()
	fast := policy.TiersFor(1)[0].TimeoutSeconds
	slow := policy.TiersFor(5)[0].TimeoutSeconds
	if fast >= slow {
		t.Fatalf("urgency 1 first timeout (%ds) must be shorter than urgency 5 (%ds)", fast, slow)
	}
}
