package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Postgres   PostgresConfig
	Escalation EscalationConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port             string
	AllowedOrigins   []string
	AllowCredentials bool
}

type AuthConfig struct {
	JWTSecret      string
	JWTAccessTTL   string
	JWTRefreshTTL  string
	AllowSignup    string
	CookieSecure   string
	CookieSameSite string
	CookiePath     string
	CookieDomain   string
	AdminUsername  string
	AdminPassword  string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type EscalationConfig struct {
	// SweepInterval - 에스컬레이션 스윕 주기 (알림별 타이머 대신 단일 주기 스캔)
	SweepInterval time.Duration

	// PolicyFile - 긴급도별 단계 타임아웃 테이블(JSON) 경로, 비어있으면 기본 정책 사용
	PolicyFile string
}

// LoggingConfig - 로깅 수집 서버(loggingd) 설정
type LoggingConfig struct {
	Port              string
	ForwardURL        string
	MaxLogSize        int
	RetentionMs       int64
	AllowedOrigins    []string
	EnableCompression bool
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:             getenv("SERVER_PORT", "8080"),
			AllowedOrigins:   splitList(getenv("ALLOWED_ORIGINS", "*")),
			AllowCredentials: getenvBool("ALLOW_CREDENTIALS", true),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			JWTAccessTTL:   getenv("JWT_ACCESS_TTL", "15m"),
			JWTRefreshTTL:  getenv("JWT_REFRESH_TTL", "720h"),
			AllowSignup:    os.Getenv("ALLOW_SIGNUP"),
			CookieSecure:   os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite: os.Getenv("AUTH_COOKIE_SAMESITE"),
			CookiePath:     os.Getenv("AUTH_COOKIE_PATH"),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
			AdminUsername:  os.Getenv("ADMIN_USERNAME"),
			AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Escalation: EscalationConfig{
			SweepInterval: time.Duration(getenvInt("ESCALATION_SWEEP_INTERVAL_SEC", 5)) * time.Second,
			PolicyFile:    os.Getenv("ESCALATION_POLICY_FILE"),
		},
		Logging: LoggingConfig{
			Port:              getenv("LOGGING_SERVICE_PORT", "3003"),
			ForwardURL:        getenv("LOGGING_SERVICE_URL", "http://localhost:3003"),
			MaxLogSize:        getenvInt("LOGGING_MAX_SIZE", 10000),
			RetentionMs:       int64(getenvInt("LOGGING_RETENTION_MS", 86400000)),
			AllowedOrigins:    splitList(getenv("LOGGING_ALLOWED_ORIGINS", "*")),
			EnableCompression: getenvBool("LOGGING_ENABLE_COMPRESSION", false),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
