package model

import "time"

// Role - 병원 직군 역할
// 알림 생성/전이 권한 판단에 사용 (service/permission.go 참고)
type Role string

const (
	RoleOperator   Role = "operator"
	RoleNurse      Role = "nurse"
	RoleDoctor     Role = "doctor"
	RoleHeadDoctor Role = "head_doctor"
	RoleAdmin      Role = "admin"
)

type AuthRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	ID         string `json:"id"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	HospitalID string `json:"hospitalId"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type AuthMeResponse struct {
	UserID     int64  `json:"userId"`
	LoginID    string `json:"loginId"`
	Role       string `json:"role"`
	HospitalID string `json:"hospitalId"`
}

// AuthUser - 액세스 토큰에서 복원한 인증 사용자
type AuthUser struct {
	ID         int64
	LoginID    string
	Role       Role
	HospitalID string
}

type User struct {
	ID           int64
	LoginID      string
	PasswordHash string
	Role         Role
	HospitalID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
