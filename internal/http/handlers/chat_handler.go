// Chat HTTP handler.
//
// This file exposes the single conversational endpoint:
//   - POST /chat   (route one visitor message and return the bot reply)
//
// The handler is transport-thin: it normalizes input, resolves the caller's
// identity, and delegates routing to the turn service. Idempotency is
// supported via the Idempotency-Key header; a replayed key returns the
// recorded bot message with `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/flow"
	"github.com/capacitamente/lyro-backend/internal/guard"
	"github.com/capacitamente/lyro-backend/internal/http/middleware"
	"github.com/capacitamente/lyro-backend/internal/repo"
	"github.com/capacitamente/lyro-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// TurnService routes one inbound visitor message and produces the reply.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type TurnService interface {
	Answer(ctx context.Context, identity, sessionID, message string) (*services.TurnResult, error)
}

// SessionService exposes session listing and lifecycle operations consumed
// by the HTTP layer.
type SessionService interface {
	ListPage(ctx context.Context, identity string, page, pageSize int) ([]domain.Session, int64, error)
	Messages(ctx context.Context, identity, sessionID string, page, pageSize int) ([]domain.Message, int64, error)
	SetPinned(ctx context.Context, identity, sessionID string, pinned bool) error
	Delete(ctx context.Context, identity, sessionID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for chat turns and sessions.
type Handlers struct {
	db      *gorm.DB
	turnSvc TurnService
	sessSvc SessionService
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services. db is used
// for idempotency bookkeeping only; ttl bounds how long a replayed
// Idempotency-Key stays valid.
func New(db *gorm.DB, turnSvc TurnService, sessSvc SessionService, ttl time.Duration) *Handlers {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{db: db, turnSvc: turnSvc, sessSvc: sessSvc, idemTTL: ttl}
}

// identityOf resolves the caller's stable owner identity. A client token is
// taken from the X-Client-Token header first, then from the optional body
// field; anonymous callers fall back to a fingerprint of address and agent.
func identityOf(c *gin.Context, bodyToken string) string {
	token := strings.TrimSpace(c.GetHeader("X-Client-Token"))
	if token == "" {
		token = strings.TrimSpace(bodyToken)
	}
	return guard.ResolveIdentity(token, c.ClientIP(), c.Request.UserAgent())
}

//
// DTOs
//

// ChatRequest is the JSON payload for sending a visitor message.
type ChatRequest struct {
	// SessionID continues an existing conversation when set; leave empty to
	// start a new one.
	SessionID string `json:"session_id" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
	// Message is the visitor's text. It must be non-empty after trimming.
	Message string `json:"message" binding:"required,min=1" example:"hola"`
	// ClientToken optionally identifies a returning visitor across devices.
	ClientToken string `json:"client_token,omitempty"`
}

// ChatResponse is the JSON envelope for a routed bot reply.
type ChatResponse struct {
	SessionID   string            `json:"session_id"`
	Reply       string            `json:"reply"`
	Suggestions []flow.Suggestion `json:"suggestions,omitempty"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeMessage normalizes visitor text: CRLF/CR to LF, runs of blank
// lines collapsed, surrounding whitespace trimmed.
func sanitizeMessage(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// maxMessageRunes inspects the concrete RouterService for the configured
// message cap, falling back to a conservative default.
func maxMessageRunes(svc TurnService) int {
	const fallback = 2000
	if rs, ok := svc.(*services.RouterService); ok && rs.MaxMessageRunes > 0 {
		return rs.MaxMessageRunes
	}
	return fallback
}

//
// Handlers
//

// PostChat godoc
// @ID          postChat
// @Summary     Send a message to the bot
// @Description Routes one visitor message through commands, active flows, the
// @Description keyword table, and the AI fallback, returning the bot reply.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-Client-Token   header  string  false "Stable visitor token"
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.ChatRequest  true  "Visitor message payload"
//
// @Success     200  {object}  handlers.ChatResponse  "Bot reply"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Session owned by another visitor"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	msg := sanitizeMessage(req.Message)
	if msg == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	maxRunes := maxMessageRunes(h.turnSvc)
	if utf8.RuneCountInString(msg) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		return
	}

	identity := identityOf(c, req.ClientToken)

	// Idempotency (replay path). Replay needs a known session because the
	// record is scoped to it.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && req.SessionID != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, identity, req.SessionID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetMessage(h.db, rec.MessageID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, ChatResponse{SessionID: req.SessionID, Reply: prev.Content})
				return
			}
		}
	}

	res, err := h.turnSvc.Answer(ctx, identity, req.SessionID, msg)
	if err != nil {
		switch err {
		case services.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case services.ErrMessageTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		case services.ErrUnauthorizedSession:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "session belongs to another visitor")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	// Idempotency (store path), best effort. Skipped when persistence
	// produced no bot message id.
	if idemKey != "" && res.BotMessageID != "" && h.db != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, identity, res.SessionID, idemKey, res.BotMessageID, http.StatusOK, h.idemTTL)
	}

	ok(c, http.StatusOK, ChatResponse{
		SessionID:   res.SessionID,
		Reply:       res.Reply,
		Suggestions: res.Suggestions,
	})
}
