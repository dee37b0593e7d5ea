// 로깅 수집 서버의 인메모리 로그 저장소
// category → 타임스탬프 오름차순 시퀀스 매핑, 전체 건수 기준/보존 기간 기준 로테이션
//
// 전역 모듈 맵이 아니라 핸들러에 주입되는 단일 소유 객체로 캡슐화
// (테스트 격리 및 추후 영속 백엔드 교체 대비)

package store

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hospital-alert/backend/internal/model"
)

type LogStore struct {
	mu         sync.Mutex
	categories map[string][]model.LogEvent
	total      int

	maxSize   int
	retention time.Duration

	// echo - 수신한 이벤트를 심각도에 맞춰 프로세스 콘솔로 출력 (nil이면 생략)
	echo *zap.Logger
}

func NewLogStore(maxSize int, retention time.Duration, echo *zap.Logger) *LogStore {
	return &LogStore{
		categories: make(map[string][]model.LogEvent),
		maxSize:    maxSize,
		retention:  retention,
		echo:       echo,
	}
}

// Append - 이벤트 1건 저장
// 타임스탬프는 호출자가 채워 보내므로 도착 순서와 무관하게 시간순으로 삽입
// (로테이션/통계가 events[0]=최고(最古), events[len-1]=최신 순서를 전제)
// 전체 건수가 maxSize를 초과하면 즉시 로테이션 수행
func (s *LogStore) Append(event model.LogEvent) {
	s.mu.Lock()
	category := event.Category
	if category == "" {
		category = "general"
		event.Category = category
	}
	events := append(s.categories[category], event)
	for i := len(events) - 1; i > 0 && events[i-1].Timestamp.After(events[i].Timestamp); i-- {
		events[i-1], events[i] = events[i], events[i-1]
	}
	s.categories[category] = events
	s.total++

	if s.total > s.maxSize {
		s.rotateLocked(time.Now())
	}
	s.mu.Unlock()

	s.echoEvent(event)
}

// Rotate - 보존 기간 초과 이벤트 제거 + 전체 건수 상한 적용 + 빈 카테고리 정리
func (s *LogStore) Rotate(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateLocked(now)
}

// RunRotation - 고정 주기 로테이션 스윕 (1분 간격, 백오프 없음)
func (s *LogStore) RunRotation(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.Rotate(now)
		}
	}
}

func (s *LogStore) rotateLocked(now time.Time) {
	cutoff := now.Add(-s.retention)

	// 1. 보존 기간이 지난 이벤트 제거
	for category, events := range s.categories {
		kept := events[:0]
		for _, event := range events {
			if event.Timestamp.After(cutoff) {
				kept = append(kept, event)
			}
		}
		s.total -= len(events) - len(kept)
		if len(kept) == 0 {
			delete(s.categories, category)
		} else {
			s.categories[category] = kept
		}
	}

	// 2. 전체 건수가 상한을 넘으면 가장 오래된 이벤트부터 제거
	for s.total > s.maxSize {
		oldestCategory := ""
		var oldestTime time.Time
		for category, events := range s.categories {
			if oldestCategory == "" || events[0].Timestamp.Before(oldestTime) {
				oldestCategory = category
				oldestTime = events[0].Timestamp
			}
		}
		if oldestCategory == "" {
			break
		}

		events := s.categories[oldestCategory]
		if len(events) == 1 {
			delete(s.categories, oldestCategory)
		} else {
			s.categories[oldestCategory] = events[1:]
		}
		s.total--
	}
}

// Query - 카테고리/건수 제한 조회 (최신순)
// category가 비어있거나 "all"이면 전체 카테고리 병합
func (s *LogStore) Query(category string, limit int) []model.LogEvent {
	s.mu.Lock()
	var matched []model.LogEvent
	if category == "" || category == "all" {
		for _, events := range s.categories {
			matched = append(matched, events...)
		}
	} else {
		matched = append(matched, s.categories[category]...)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Stats - 전체/카테고리별 통계
func (s *LogStore) Stats() model.LogStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.LogStats{
		TotalLogs:  s.total,
		Categories: make(map[string]model.CategoryStats, len(s.categories)),
	}

	for category, events := range s.categories {
		oldest := events[0].Timestamp
		newest := events[len(events)-1].Timestamp
		stats.Categories[category] = model.CategoryStats{
			Count:     len(events),
			OldestLog: &oldest,
			NewestLog: &newest,
		}
	}
	return stats
}

// Total - 현재 저장된 전체 이벤트 수
func (s *LogStore) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *LogStore) echoEvent(event model.LogEvent) {
	if s.echo == nil {
		return
	}

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("category", event.Category),
		zap.Time("eventTime", event.Timestamp),
	}
	if event.HospitalID != "" {
		fields = append(fields, zap.String("hospitalId", event.HospitalID))
	}
	if event.TraceID != "" {
		fields = append(fields, zap.String("traceId", event.TraceID))
	}

	switch event.Level {
	case model.LogLevelDebug:
		s.echo.Debug(event.Message, fields...)
	case model.LogLevelWarn:
		s.echo.Warn(event.Message, fields...)
	case model.LogLevelError:
		s.echo.Error(event.Message, fields...)
	default:
		s.echo.Info(event.Message, fields...)
	}
}
