package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/capacitamente/lyro-backend/internal/config"
	"github.com/capacitamente/lyro-backend/internal/repo"
)

func init() { gin.SetMode(gin.TestMode) }

type staticAI struct{ reply string }

func (a staticAI) Ask(ctx context.Context, sessionID, text string) string { return a.reply }

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:httpapi?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      100,
		IdempotencyTTL: time.Hour,
	}
	cfg.OTEL.ServiceName = "lyro-backend-test"

	r := gin.New()
	RegisterRoutes(r, db, staticAI{reply: "respuesta"}, cfg)
	return r
}

func TestRegisterRoutes_Smoke(t *testing.T) {
	r := newTestEngine(t)

	// Liveness.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	// Prometheus endpoint.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}

	// Unknown routes render the JSON error envelope.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("no route: %d %s", w.Code, w.Body.String())
	}

	// Wrong method on a registered path.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/chat", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("no method: %d", w.Code)
	}
}

func TestRegisterRoutes_ChatTurnEndToEnd(t *testing.T) {
	r := newTestEngine(t)

	body := bytes.NewBufferString(`{"message":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Token", "visitor-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" || resp.Reply == "" {
		t.Fatalf("resp = %+v", resp)
	}

	// The turn is visible in the caller's session list.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("X-Client-Token", "visitor-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sessions: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), resp.SessionID) {
		t.Fatalf("session %q missing from listing: %s", resp.SessionID, w.Body.String())
	}

	// Another visitor cannot continue that session.
	body = bytes.NewBufferString(`{"session_id":"` + resp.SessionID + `","message":"hola"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Token", "visitor-2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign turn: %d %s", w.Code, w.Body.String())
	}
}
