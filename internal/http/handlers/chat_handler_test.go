package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/flow"
	"github.com/capacitamente/lyro-backend/internal/http/middleware"
	"github.com/capacitamente/lyro-backend/internal/repo"
	"github.com/capacitamente/lyro-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func newHandlerDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeTurnService scripts one Answer outcome.
type fakeTurnService struct {
	res         *services.TurnResult
	err         error
	calls       int
	gotIdentity string
	gotSession  string
	gotMessage  string
}

func (f *fakeTurnService) Answer(ctx context.Context, identity, sessionID, message string) (*services.TurnResult, error) {
	f.calls++
	f.gotIdentity = identity
	f.gotSession = sessionID
	f.gotMessage = message
	return f.res, f.err
}

// fakeSessionService scripts session operations for handler tests.
type fakeSessionService struct {
	sessions []domain.Session
	messages []domain.Message
	total    int64
	err      error

	gotPinned  *bool
	deleted    string
	gotPage    int
	gotSize    int
	gotSession string
}

func (f *fakeSessionService) ListPage(ctx context.Context, identity string, page, pageSize int) ([]domain.Session, int64, error) {
	f.gotPage, f.gotSize = page, pageSize
	return f.sessions, f.total, f.err
}

func (f *fakeSessionService) Messages(ctx context.Context, identity, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	f.gotSession = sessionID
	f.gotPage, f.gotSize = page, pageSize
	return f.messages, f.total, f.err
}

func (f *fakeSessionService) SetPinned(ctx context.Context, identity, sessionID string, pinned bool) error {
	f.gotSession = sessionID
	f.gotPinned = &pinned
	return f.err
}

func (f *fakeSessionService) Delete(ctx context.Context, identity, sessionID string) error {
	f.deleted = sessionID
	return f.err
}

func newChatRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/chat", h.PostChat)
	return r
}

func postChat(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostChat_Happy(t *testing.T) {
	turn := &fakeTurnService{res: &services.TurnResult{
		Reply:        "¡Hola! 👋",
		SessionID:    "sess-1",
		Suggestions:  []flow.Suggestion{{Value: "1", Label: "Cursos 📚"}},
		BotMessageID: "msg-1",
	}}
	h := New(nil, turn, &fakeSessionService{}, 0)
	r := newChatRouter(h)

	w := postChat(r, `{"session_id":"sess-1","message":"  hola\r\n\r\n\r\n¿qué tal?  "}`, map[string]string{"X-Client-Token": "v123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "¡Hola! 👋" || resp.SessionID != "sess-1" || len(resp.Suggestions) != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	if turn.gotIdentity != "tok:v123" {
		t.Fatalf("identity = %q", turn.gotIdentity)
	}
	// CRLF normalized, blank-line runs collapsed, edges trimmed.
	if turn.gotMessage != "hola\n\n¿qué tal?" {
		t.Fatalf("sanitized message = %q", turn.gotMessage)
	}
}

func TestPostChat_BadRequests(t *testing.T) {
	turn := &fakeTurnService{}
	h := New(nil, turn, &fakeSessionService{}, 0)
	r := newChatRouter(h)

	for name, body := range map[string]string{
		"no body":       ``,
		"missing field": `{"session_id":"s"}`,
		"blank message": `{"message":"   \n\n  "}`,
	} {
		w := postChat(r, body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, w.Code)
		}
	}
	if turn.calls != 0 {
		t.Fatalf("invalid payloads must not reach the service")
	}
}

func TestPostChat_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty", services.ErrEmptyMessage, http.StatusBadRequest},
		{"too long", services.ErrMessageTooLong, http.StatusBadRequest},
		{"foreign session", services.ErrUnauthorizedSession, http.StatusForbidden},
		{"internal", gorm.ErrInvalidDB, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(nil, &fakeTurnService{err: tt.err}, &fakeSessionService{}, 0)
			w := postChat(newChatRouter(h), `{"message":"hola"}`, nil)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code == "" {
				t.Fatalf("error envelope missing code: %s", w.Body.String())
			}
		})
	}
}

func TestPostChat_IdempotentReplay(t *testing.T) {
	db := newHandlerDB(t, "handlers-idem")
	ctx := context.Background()

	if _, err := repo.CreateSession(ctx, db, "sess-1", "tok:v123"); err != nil {
		t.Fatalf("session: %v", err)
	}
	prev, err := repo.CreateMessage(db, "sess-1", domain.RoleBot, "respuesta original")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if _, err := repo.CreateIdempotency(ctx, db, "tok:v123", "sess-1", "key-1", prev.ID, http.StatusOK, time.Hour); err != nil {
		t.Fatalf("idempotency: %v", err)
	}

	turn := &fakeTurnService{res: &services.TurnResult{Reply: "nueva respuesta", SessionID: "sess-1", BotMessageID: "msg-2"}}
	h := New(db, turn, &fakeSessionService{}, time.Hour)
	r := newChatRouter(h)

	headers := map[string]string{"X-Client-Token": "v123", "Idempotency-Key": "key-1"}
	w := postChat(r, `{"session_id":"sess-1","message":"hola"}`, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay header missing")
	}
	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "respuesta original" {
		t.Fatalf("replayed reply = %q", resp.Reply)
	}
	if turn.calls != 0 {
		t.Fatalf("replay must not re-route the turn")
	}

	// A different key runs the turn and records it for later replays.
	headers["Idempotency-Key"] = "key-2"
	w = postChat(r, `{"session_id":"sess-1","message":"hola"}`, headers)
	if w.Code != http.StatusOK || turn.calls != 1 {
		t.Fatalf("fresh key: status=%d calls=%d", w.Code, turn.calls)
	}
	rec, err := repo.GetIdempotency(ctx, db, "tok:v123", "sess-1", "key-2", time.Now().UTC())
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if rec.MessageID != "msg-2" {
		t.Fatalf("stored message id = %q", rec.MessageID)
	}
}

func TestPostChat_MalformedIdempotencyKeyRejected(t *testing.T) {
	h := New(nil, &fakeTurnService{}, &fakeSessionService{}, 0)
	r := newChatRouter(h)

	w := postChat(r, `{"message":"hola"}`, map[string]string{"Idempotency-Key": "no spaces allowed"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
