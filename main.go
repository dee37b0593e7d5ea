// 병원 알림 API 서버 엔트리포인트
//
// 기동 순서:
//  1. .env 및 환경변수에서 설정 로드
//  2. Postgres 연결 + 스키마 보장 (인증 사용자 + 알림 감사 이력)
//  3. 에스컬레이션 정책 로드, 서비스/허브/텔레메트리 클라이언트 구성
//  4. 에스컬레이션 스윕/텔레메트리 워커 기동
//  5. Gin 라우터 구성 후 graceful shutdown 지원으로 serve

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hospital-alert/backend/internal/client"
	"github.com/hospital-alert/backend/internal/config"
	"github.com/hospital-alert/backend/internal/db"
	"github.com/hospital-alert/backend/internal/handler"
	"github.com/hospital-alert/backend/internal/service"
	"github.com/hospital-alert/backend/internal/store"
	"github.com/hospital-alert/backend/internal/ws"
)

func main() {
	// .env는 로컬 개발 편의용 - 없어도 무시
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres 연결 (인증 사용자 저장 + 알림 감사 이력)
	database, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer database.Close()

	if err := database.EnsureAuthSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure auth schema: %v", err)
	}
	if err := database.EnsureAlertSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure alert schema: %v", err)
	}

	// 인증 서비스
	authService, err := service.NewAuthService(database, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to init auth service: %v", err)
	}
	if cfg.Auth.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			log.Fatalf("Failed to ensure admin user: %v", err)
		}
	}

	// 에스컬레이션 정책 (긴급도별 단계 타임아웃 테이블)
	policy, err := service.LoadPolicy(cfg.Escalation.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load escalation policy: %v", err)
	}

	// WebSocket 허브 + 로깅 수집 서버 전달 클라이언트
	hub := ws.NewHub()
	telemetry := client.NewTelemetryClient(cfg.Logging.ForwardURL)
	go telemetry.Run(ctx)

	// 알림 상태 머신 + 에스컬레이션 스윕
	alertService := service.NewAlertService(store.NewAlertStore(), policy, hub, database, telemetry)
	go alertService.RunEscalationSweep(ctx, cfg.Escalation.SweepInterval)

	dutyService := service.NewDutyService()

	router := setupRouter(cfg, authService, alertService, dutyService, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Alert API server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func setupRouter(cfg config.Config, authService *service.AuthService, alertService *service.AlertService, dutyService *service.DutyService, hub *ws.Hub) *gin.Engine {
	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.AllowCredentials))

	router.GET("/ping", handler.Ping)
	router.GET("/", handler.Root)

	authHandler := handler.NewAuthHandler(authService)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", handler.AuthMiddleware(authService), authHandler.Me)
	}

	alertHandler := handler.NewAlertHandler(alertService)
	dutyHandler := handler.NewDutyHandler(dutyService)

	authorized := router.Group("/api/v1", handler.AuthMiddleware(authService))
	{
		authorized.POST("/alerts", alertHandler.Create)
		authorized.GET("/alerts", alertHandler.List)
		authorized.GET("/alerts/:id", alertHandler.Get)
		authorized.GET("/alerts/:id/escalations", alertHandler.Escalations)
		authorized.POST("/alerts/:id/acknowledge", alertHandler.Acknowledge)
		authorized.POST("/alerts/:id/resolve", alertHandler.Resolve)
		authorized.POST("/alerts/:id/escalate", alertHandler.Escalate)

		authorized.POST("/duty", dutyHandler.Toggle)
		authorized.GET("/duty", dutyHandler.Status)
	}

	wsHandler := handler.NewWSHandler(hub, cfg.Server.AllowedOrigins)
	router.GET("/ws", handler.AuthMiddleware(authService), wsHandler.Subscribe)

	return router
}
