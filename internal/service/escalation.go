// 에스컬레이션 타이머/단계 엔진
// 알림의 생성 시각, 응답 여부, 긴급도별 단계 타임아웃 설정을 바탕으로
// 현재 시점에 에스컬레이션이 필요한지 계산하는 순수 로직
//
// 정책:
//   - 경과 시간 기준점은 직전 단계의 triggeredAt (첫 단계는 createdAt)
//   - 단계는 건너뛰지 않음 - 타임아웃이 여러 번 지났어도 평가 1회당 1단계씩 진행
//     (호출자가 반복 호출로 catch-up, 단계마다 EscalationEvent가 하나씩 남음)
//   - acknowledgedAt이 설정되면 단계 동결, nextEscalationAt = nil
//   - 음수 경과 시간(시계 역행)은 0으로 클램프하고 경고 로그만 남김

package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hospital-alert/backend/internal/model"
)

// TierConfig - 단일 에스컬레이션 단계 설정
type TierConfig struct {
	Tier           int      `json:"tier"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
	NotifyRoles    []string `json:"notifyRoles"`
}

// EscalationPolicy - 긴급도(1~5) → 단계 테이블 매핑
// 긴급도 1이 가장 심각하며 더 짧은 타임아웃 테이블을 가짐
type EscalationPolicy struct {
	Tiers map[int][]TierConfig `json:"tiers"`
}

// DefaultPolicy - 정책 파일이 없을 때 사용하는 기본 단계 테이블
func DefaultPolicy() EscalationPolicy {
	return EscalationPolicy{
		Tiers: map[int][]TierConfig{
			1: {
				{Tier: 1, TimeoutSeconds: 60, NotifyRoles: []string{"doctor", "head_doctor"}},
				{Tier: 2, TimeoutSeconds: 120, NotifyRoles: []string{"head_doctor"}},
				{Tier: 3, TimeoutSeconds: 180, NotifyRoles: []string{"head_doctor", "admin"}},
			},
			2: {
				{Tier: 1, TimeoutSeconds: 120, NotifyRoles: []string{"doctor", "head_doctor"}},
				{Tier: 2, TimeoutSeconds: 300, NotifyRoles: []string{"head_doctor"}},
			},
			3: {
				{Tier: 1, TimeoutSeconds: 300, NotifyRoles: []string{"doctor"}},
				{Tier: 2, TimeoutSeconds: 600, NotifyRoles: []string{"head_doctor"}},
			},
			4: {
				{Tier: 1, TimeoutSeconds: 600, NotifyRoles: []string{"nurse", "doctor"}},
			},
			5: {
				{Tier: 1, TimeoutSeconds: 1800, NotifyRoles: []string{"nurse"}},
			},
		},
	}
}

// LoadPolicy - JSON 정책 파일 로드 (path가 비어있으면 기본 정책)
func LoadPolicy(path string) (EscalationPolicy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return EscalationPolicy{}, fmt.Errorf("failed to read escalation policy: %w", err)
	}

	var policy EscalationPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return EscalationPolicy{}, fmt.Errorf("failed to parse escalation policy: %w", err)
	}
	if len(policy.Tiers) == 0 {
		return EscalationPolicy{}, fmt.Errorf("escalation policy has no tier tables")
	}
	return policy, nil
}

// TiersFor - 긴급도에 해당하는 단계 테이블 반환 (범위 밖 긴급도는 가장 느린 테이블로 클램프)
func (p EscalationPolicy) TiersFor(urgency int) []TierConfig {
	if tiers, ok := p.Tiers[urgency]; ok {
		return tiers
	}

	// 설정에 없는 긴급도는 정의된 것 중 가장 큰(느린) 긴급도 테이블 사용
	var maxUrgency int
	for u := range p.Tiers {
		if u > maxUrgency {
			maxUrgency = u
		}
	}
	return p.Tiers[maxUrgency]
}

// Evaluation - 에스컬레이션 평가 결과
type Evaluation struct {
	ShouldEscalate   bool
	NextTier         int
	NextEscalationAt *time.Time
}

// Evaluate - 알림 1건의 에스컬레이션 필요 여부 평가 (순수 함수, 상태 변경 없음)
func Evaluate(alert *model.Alert, tiers []TierConfig, now time.Time) Evaluation {
	// acknowledged/resolved 상태면 단계 동결
	if alert.Status != model.AlertStatusActive || alert.AcknowledgedAt != nil {
		return Evaluation{ShouldEscalate: false, NextTier: alert.CurrentEscalationTier}
	}

	// 마지막 단계 도달 - 더 이상 진행할 단계 없음
	if alert.CurrentEscalationTier >= len(tiers) {
		return Evaluation{ShouldEscalate: false, NextTier: alert.CurrentEscalationTier}
	}

	base := escalationBase(alert)
	next := tiers[alert.CurrentEscalationTier]
	timeout := time.Duration(next.TimeoutSeconds) * time.Second

	elapsed := now.Sub(base)
	if elapsed < 0 {
		log.Printf("[Escalation] Negative elapsed time clamped to zero (alert_id=%s, base=%s, now=%s)",
			alert.ID, base.Format(time.RFC3339), now.Format(time.RFC3339))
		elapsed = 0
	}

	if elapsed >= timeout {
		return Evaluation{
			ShouldEscalate: true,
			NextTier:       alert.CurrentEscalationTier + 1,
		}
	}

	deadline := base.Add(timeout)
	return Evaluation{
		ShouldEscalate:   false,
		NextTier:         alert.CurrentEscalationTier,
		NextEscalationAt: &deadline,
	}
}

// NextDeadline - tier 단계까지 진행된 알림의 다음 에스컬레이션 예정 시각
// 남은 단계가 없으면 nil
func NextDeadline(from time.Time, tier int, tiers []TierConfig) *time.Time {
	if tier >= len(tiers) {
		return nil
	}
	deadline := from.Add(time.Duration(tiers[tier].TimeoutSeconds) * time.Second)
	return &deadline
}

// escalationBase - 경과 시간 기준점 (직전 단계 triggeredAt, 없으면 createdAt)
func escalationBase(alert *model.Alert) time.Time {
	if n := len(alert.Escalations); n > 0 {
		return alert.Escalations[n-1].TriggeredAt
	}
	return alert.CreatedAt
}
