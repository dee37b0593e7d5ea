package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/hospital-alert/backend/internal/model"
)

func logEvent(category string, ts time.Time) model.LogEvent {
	return model.LogEvent{
		ID:        fmt.Sprintf("%s-%d", category, ts.UnixNano()),
		Timestamp: ts,
		Level:     model.LogLevelInfo,
		Service:   "test",
		Category:  category,
		Message:   "event",
	}
}

func TestAppendAndStats(t *testing.T) {
	s := NewLogStore(100, time.Hour, nil)
	now := time.Now()

	s.Append(logEvent("auth", now.Add(-2*time.Second)))
	s.Append(logEvent("auth", now.Add(-1*time.Second)))
	s.Append(logEvent("alerts", now))

	stats := s.Stats()
	if stats.TotalLogs != 3 {
		t.Fatalf("totalLogs = %d, want 3", stats.TotalLogs)
	}
	authStats, ok := stats.Categories["auth"]
	if !ok || authStats.Count != 2 {
		t.Fatalf("auth category stats = %+v", authStats)
	}
	if !authStats.OldestLog.Before(*authStats.NewestLog) {
		t.Fatalf("oldest/newest ordering wrong")
	}
}

func TestRotationEnforcesMaxSize(t *testing.T) {
	s := NewLogStore(5, time.Hour, nil)
	now := time.Now()

	// maxSize=5에 10건 적재 - 로테이션 후 총 건수는 5 이하
	for i := 0; i < 10; i++ {
		s.Append(logEvent("api", now.Add(time.Duration(i)*time.Millisecond)))
	}

	s.Rotate(now.Add(time.Second))
	if total := s.Total(); total > 5 {
		t.Fatalf("totalLogs = %d, want <= 5", total)
	}

	// 가장 오래된 것부터 제거됨 - 남은 것은 최근 이벤트
	logs := s.Query("api", 0)
	for _, event := range logs {
		if event.Timestamp.Before(now.Add(4 * time.Millisecond)) {
			t.Fatalf("old event survived rotation: %v", event.Timestamp)
		}
	}
}

func TestRotationDropsExpired(t *testing.T) {
	s := NewLogStore(100, time.Minute, nil)
	now := time.Now()

	s.Append(logEvent("old", now.Add(-2*time.Minute)))
	s.Append(logEvent("fresh", now))

	s.Rotate(now)
	if total := s.Total(); total != 1 {
		t.Fatalf("totalLogs = %d, want 1", total)
	}

	// 빈 카테고리는 정리됨
	stats := s.Stats()
	if _, ok := stats.Categories["old"]; ok {
		t.Fatalf("empty category must be compacted")
	}
}

func TestQueryNewestFirstWithLimit(t *testing.T) {
	s := NewLogStore(100, time.Hour, nil)
	now := time.Now()

	for i := 0; i < 3; i++ {
		s.Append(logEvent("auth", now.Add(time.Duration(i)*time.Second)))
	}

	logs := s.Query("auth", 2)
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	if logs[0].Timestamp.Before(logs[1].Timestamp) {
		t.Fatalf("logs must be newest first")
	}
	if !logs[0].Timestamp.Equal(now.Add(2 * time.Second)) {
		t.Fatalf("most recent event missing from page")
	}
}

func TestQueryAllCategories(t *testing.T) {
	s := NewLogStore(100, time.Hour, nil)
	now := time.Now()

	s.Append(logEvent("auth", now))
	s.Append(logEvent("alerts", now.Add(time.Second)))

	logs := s.Query("all", 0)
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	if logs[0].Category != "alerts" {
		t.Fatalf("merged query must be newest first across categories")
	}
}

func TestAppendRotatesWhenOverMaxSize(t *testing.T) {
	s := NewLogStore(3, time.Hour, nil)
	now := time.Now()

	for i := 0; i < 6; i++ {
		s.Append(logEvent("api", now.Add(time.Duration(i)*time.Millisecond)))
	}

	// Append 자체가 상한 초과 시 즉시 로테이션
	if total := s.Total(); total > 3 {
		t.Fatalf("totalLogs = %d, want <= 3", total)
	}
}

func TestOutOfOrderTimestamps(t *testing.T) {
	s := NewLogStore(100, time.Hour, nil)
	now := time.Now()

	// 타임스탬프는 수집 에이전트가 찍어 보내므로 도착 순서가 시간순이라는 보장이 없음
	s.Append(logEvent("api", now.Add(-1*time.Second)))
	s.Append(logEvent("api", now.Add(-5*time.Second)))
	s.Append(logEvent("api", now.Add(-3*time.Second)))

	stats := s.Stats()
	apiStats := stats.Categories["api"]
	if !apiStats.OldestLog.Equal(now.Add(-5 * time.Second)) {
		t.Fatalf("oldestLog = %v, want %v", apiStats.OldestLog, now.Add(-5*time.Second))
	}
	if !apiStats.NewestLog.Equal(now.Add(-1 * time.Second)) {
		t.Fatalf("newestLog = %v, want %v", apiStats.NewestLog, now.Add(-1*time.Second))
	}
}

func TestRotationEvictsTrueOldestAcrossArrivalOrder(t *testing.T) {
	s := NewLogStore(2, time.Hour, nil)
	now := time.Now()

	// 늦게 도착한 이벤트가 가장 오래된 타임스탬프를 가짐
	s.Append(logEvent("api", now))
	s.Append(logEvent("api", now.Add(-10*time.Second)))
	s.Append(logEvent("api", now.Add(-5*time.Second)))

	// 상한 초과분은 타임스탬프 기준 최고(最古)부터 제거
	logs := s.Query("api", 0)
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	for _, event := range logs {
		if event.Timestamp.Equal(now.Add(-10 * time.Second)) {
			t.Fatalf("oldest-by-timestamp event must have been evicted")
		}
	}
}

func TestEmptyCategoryDefaultsToGeneral(t *testing.T) {
	s := NewLogStore(10, time.Hour, nil)
	s.Append(model.LogEvent{ID: "x", Timestamp: time.Now(), Level: model.LogLevelInfo})

	stats := s.Stats()
	if _, ok := stats.Categories["general"]; !ok {
		t.Fatalf("uncategorized event must land in 'general'")
	}
}
