// 로깅 수집 서버(loggingd) 엔트리포인트
// 메인 API 서버와 독립적으로 동작하는 단일 프로세스 - 인메모리 저장, 수평 확장 없음
//
// 엔드포인트:
//   POST /log        단건 수집
//   POST /log/batch  배치 수집 (X-Batch-ID / X-Retry-Count)
//   GET  /logs       조회 (category, limit)
//   GET  /stats      카테고리별 통계
//   GET  /health     liveness probe

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hospital-alert/backend/internal/config"
	"github.com/hospital-alert/backend/internal/handler"
	"github.com/hospital-alert/backend/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stopSignal := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignal()

	// 수신 이벤트를 심각도에 맞춰 콘솔로 echo하는 구조화 로거
	echo, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer echo.Sync()

	logStore := store.NewLogStore(
		cfg.Logging.MaxLogSize,
		time.Duration(cfg.Logging.RetentionMs)*time.Millisecond,
		echo,
	)

	// 고정 1분 주기 로테이션 스윕
	stop := make(chan struct{})
	go logStore.RunRotation(stop, time.Minute)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.Logging.AllowedOrigins, false))
	if cfg.Logging.EnableCompression {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	loggingHandler := handler.NewLoggingHandler(logStore)
	router.POST("/log", loggingHandler.Log)
	router.POST("/log/batch", loggingHandler.LogBatch)
	router.GET("/logs", loggingHandler.Logs)
	router.GET("/stats", loggingHandler.Stats)
	router.GET("/health", loggingHandler.Health)

	srv := &http.Server{
		Addr:    ":" + cfg.Logging.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Logging service listening on :%s (max_size=%d, retention_ms=%d)",
			cfg.Logging.Port, cfg.Logging.MaxLogSize, cfg.Logging.RetentionMs)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
