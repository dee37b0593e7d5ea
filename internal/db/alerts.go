// 알림/에스컬레이션 감사 이력 저장
// 라이브 상태는 인메모리 store가 원본, 여기는 append/upsert 방식의 이력 테이블

package db

import (
	"context"

	"github.com/hospital-alert/backend/internal/model"
)

// EnsureAlertSchema - alerts / alert_escalations 테이블 생성
func (db *Postgres) EnsureAlertSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS alerts (
			alert_id TEXT PRIMARY KEY,
			hospital_id TEXT NOT NULL,
			room_number TEXT NOT NULL DEFAULT '',
			alert_type TEXT NOT NULL DEFAULT '',
			urgency_level INT NOT NULL DEFAULT 3,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			acknowledged_at TIMESTAMPTZ,
			acknowledged_by TEXT NOT NULL DEFAULT '',
			resolved_at TIMESTAMPTZ,
			resolved_by TEXT NOT NULL DEFAULT '',
			resolution TEXT NOT NULL DEFAULT '',
			escalation_tier INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS alert_escalations (
			id BIGSERIAL PRIMARY KEY,
			alert_id TEXT NOT NULL REFERENCES alerts(alert_id) ON DELETE CASCADE,
			tier INT NOT NULL,
			triggered_at TIMESTAMPTZ NOT NULL,
			notified_roles TEXT[] NOT NULL DEFAULT '{}',
			reason TEXT NOT NULL DEFAULT 'timeout'
		)
		`,
		`CREATE INDEX IF NOT EXISTS alerts_hospital_id_idx ON alerts(hospital_id)`,
		`CREATE INDEX IF NOT EXISTS alerts_status_idx ON alerts(status)`,
		`CREATE INDEX IF NOT EXISTS alerts_created_at_idx ON alerts(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS alert_escalations_alert_id_idx ON alert_escalations(alert_id)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// SaveAlert - 알림 현재 상태 upsert
func (db *Postgres) SaveAlert(ctx context.Context, alert *model.Alert) error {
	query := `
		INSERT INTO alerts (
			alert_id, hospital_id, room_number, alert_type, urgency_level, description,
			status, created_at, created_by, acknowledged_at, acknowledged_by,
			resolved_at, resolved_by, resolution, escalation_tier, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (alert_id) DO UPDATE SET
			status = EXCLUDED.status,
			acknowledged_at = EXCLUDED.acknowledged_at,
			acknowledged_by = EXCLUDED.acknowledged_by,
			resolved_at = EXCLUDED.resolved_at,
			resolved_by = EXCLUDED.resolved_by,
			resolution = EXCLUDED.resolution,
			escalation_tier = EXCLUDED.escalation_tier,
			updated_at = NOW()
	`

	_, err := db.Pool.Exec(ctx, query,
		alert.ID,
		alert.HospitalID,
		alert.RoomNumber,
		alert.AlertType,
		alert.UrgencyLevel,
		alert.Description,
		string(alert.Status),
		alert.CreatedAt,
		alert.CreatedBy,
		alert.AcknowledgedAt,
		alert.AcknowledgedBy,
		alert.ResolvedAt,
		alert.ResolvedBy,
		alert.Resolution,
		alert.CurrentEscalationTier,
	)
	return err
}

// SaveEscalation - 에스컬레이션 발생 기록 append
func (db *Postgres) SaveEscalation(ctx context.Context, alertID string, event model.EscalationEvent) error {
	query := `
		INSERT INTO alert_escalations (alert_id, tier, triggered_at, notified_roles, reason)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.Pool.Exec(ctx, query, alertID, event.Tier, event.TriggeredAt, event.NotifiedRoles, event.Reason)
	return err
}

// GetAlertHospital - 감사 이력의 알림 1건이 속한 병원 조회 (스코프 판정용)
func (db *Postgres) GetAlertHospital(ctx context.Context, alertID string) (string, error) {
	var hospitalID string
	err := db.Pool.QueryRow(ctx,
		`SELECT hospital_id FROM alerts WHERE alert_id = $1`, alertID,
	).Scan(&hospitalID)
	if err != nil {
		return "", err
	}
	return hospitalID, nil
}

// GetEscalationHistory - 알림 1건의 에스컬레이션 이력 조회 (단계 순)
func (db *Postgres) GetEscalationHistory(ctx context.Context, alertID string) ([]model.EscalationEvent, error) {
	query := `
		SELECT tier, triggered_at, notified_roles, reason
		FROM alert_escalations
		WHERE alert_id = $1
		ORDER BY tier ASC
	`

	rows, err := db.Pool.Query(ctx, query, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.EscalationEvent
	for rows.Next() {
		var event model.EscalationEvent
		if err := rows.Scan(&event.Tier, &event.TriggeredAt, &event.NotifiedRoles, &event.Reason); err != nil {
			return nil, err
		}
		history = append(history, event)
	}

	if history == nil {
		history = []model.EscalationEvent{}
	}
	return history, nil
}
