// 역할 기반 권한 판단을 한 곳에 모아 정의
// 화면/핸들러마다 역할 분기를 중복 구현하지 않고 이 함수들만 사용

package service

import "github.com/hospital-alert/backend/internal/model"

// CanCreateAlert - 알림 생성 권한 (operator 동급 이상)
func CanCreateAlert(role model.Role) bool {
	switch role {
	case model.RoleOperator, model.RoleAdmin:
		return true
	}
	return false
}

// CanTransition - 역할이 from → to 상태 전이를 수행할 수 있는지 판단
// 전이 자체의 유효성(순서)은 상태 머신이 별도로 검사함
func CanTransition(role model.Role, from, to model.AlertStatus) bool {
	switch {
	case from == model.AlertStatusActive && to == model.AlertStatusAcknowledged:
		return role == model.RoleDoctor || role == model.RoleNurse || role == model.RoleHeadDoctor
	case from == model.AlertStatusAcknowledged && to == model.AlertStatusResolved:
		return role == model.RoleDoctor || role == model.RoleHeadDoctor
	}
	return false
}

// CanEscalateManually - 수동 에스컬레이션 권한
func CanEscalateManually(role model.Role) bool {
	return role == model.RoleHeadDoctor || role == model.RoleAdmin
}
