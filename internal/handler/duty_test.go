package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hospital-alert/backend/internal/model"
	"github.com/hospital-alert/backend/internal/service"
)

func newDutyRouter(user *model.AuthUser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDutyHandler(service.NewDutyService())

	r := gin.New()
	api := r.Group("/api/v1", asUser(user))
	api.POST("/duty", h.Toggle)
	api.GET("/duty", h.Status)
	return r
}

func TestDutyDefaultsToOff(t *testing.T) {
	r := newDutyRouter(testDoctor)

	w := doJSON(t, r, http.MethodGet, "/api/v1/duty", "")
	var status model.OnDutyStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if status.IsOnDuty || status.UserID != "doc1" {
		t.Fatalf("unexpected default status: %+v", status)
	}
}

func TestDutyToggleRoundTrip(t *testing.T) {
	r := newDutyRouter(testDoctor)

	w := doJSON(t, r, http.MethodPost, "/api/v1/duty", `{"isOnDuty":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/duty", "")
	var status model.OnDutyStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !status.IsOnDuty {
		t.Fatal("status must be on-duty after toggle")
	}

	// false를 명시적으로 보내는 것과 필드 누락은 구분됨
	if w := doJSON(t, r, http.MethodPost, "/api/v1/duty", `{"isOnDuty":false}`); w.Code != http.StatusOK {
		t.Fatalf("explicit false: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/v1/duty", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing flag: status = %d, want 400", w.Code)
	}
}
