// Package services – RouterService
//
// This file implements the intent router, the application-level component
// that owns one conversational turn end to end. It validates the inbound
// message, enforces session ownership through the guard, serializes turns
// per session, and dispatches in strict precedence order: global commands,
// active-flow continuation, the FAQ table, and finally the AI fallback
// gateway.
//
// Persistence toward the session history is best-effort: a failing write is
// logged and swallowed so the computed reply always reaches the caller.
//
// Observability: Answer is OpenTelemetry-instrumented; spans include the
// session identifier and the route that handled the turn.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/capacitamente/lyro-backend/internal/catalog"
	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/faq"
	"github.com/capacitamente/lyro-backend/internal/flow"
	"github.com/capacitamente/lyro-backend/internal/guard"
	"github.com/capacitamente/lyro-backend/internal/repo"
	"github.com/capacitamente/lyro-backend/internal/textutil"
)

// SessionGuard is the ownership contract required by the router.
type SessionGuard interface {
	// Ensure resolves a session id for an identity, creating unseen
	// sessions and rejecting foreign ones.
	Ensure(ctx context.Context, sessionID, identity string) (*domain.Session, error)
}

// FallbackGateway is the AI contract required by the router. Ask never
// fails; it always returns displayable text.
type FallbackGateway interface {
	Ask(ctx context.Context, sessionID, text string) string
}

// TurnResult is the outcome of one routed turn.
type TurnResult struct {
	Reply        string
	SessionID    string
	Suggestions  []flow.Suggestion
	BotMessageID string
}

// RouterService coordinates the guard, the flow engines, the FAQ matcher,
// and the AI gateway for every inbound turn.
type RouterService struct {
	DB     *gorm.DB
	Guard  SessionGuard
	Flows  *flow.Registry
	States *flow.Store
	FAQ    *faq.Matcher
	AI     FallbackGateway

	// MaxMessageRunes caps inbound message length; <= 0 disables the check.
	MaxMessageRunes int
}

// Reply shown when a flow engine fails on a side effect; the flow state is
// cleared so the user is not stuck mid-flow.
const flowFailureReply = "Ups, algo salió mal de nuestro lado. 🙏 Escribe *menu* para empezar de nuevo."

var menuSuggestions = []flow.Suggestion{
	{Value: "1", Label: "Cursos 📚"},
	{Value: "4", Label: "Inscribirme 📝"},
	{Value: "8", Label: "Contacto 📞"},
}

// Global command token sets, matched against the whole normalized message.
var (
	greetingTokens = map[string]struct{}{
		"hola": {}, "buenas": {}, "buenos dias": {}, "buenas tardes": {},
		"buenas noches": {}, "hello": {}, "hi": {}, "hey": {}, "saludos": {},
	}
	menuTokens   = map[string]struct{}{"menu": {}, "inicio": {}, "empezar": {}, "0": {}}
	cancelTokens = map[string]struct{}{"cancelar": {}, "cancel": {}, "salir": {}, "detener": {}}
)

// Answer routes one inbound turn and returns the reply. Only missing-input
// validation and ownership violations surface as errors; every other
// failure path resolves into a safe textual reply.
func (s *RouterService) Answer(ctx context.Context, identity, sessionID, message string) (*TurnResult, error) {
	tr := otel.Tracer("services/RouterService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	session, err := s.Guard.Ensure(ctx, sessionID, identity)
	if err != nil {
		if errors.Is(err, guard.ErrOwnerMismatch) {
			return nil, ErrUnauthorizedSession
		}
		return nil, err
	}

	// Serialize turns per session so concurrent requests cannot interleave
	// step advancement.
	unlock := s.States.LockTurn(session.ID)
	defer unlock()

	turn := flow.Turn{SessionID: session.ID, OwnerIdentity: identity}
	reply, route := s.route(ctx, turn, message)
	span.SetAttributes(attribute.String("turn.route", route))
	countTurn(route)

	res := &TurnResult{Reply: reply.Text, SessionID: session.ID, Suggestions: reply.Suggestions}
	res.BotMessageID = s.persistTurn(ctx, session.ID, message, reply.Text)
	return res, nil
}

// route applies the precedence order and returns the reply plus a label for
// tracing. It assumes the per-session turn lock is held.
func (s *RouterService) route(ctx context.Context, turn flow.Turn, message string) (flow.Reply, string) {
	normalized := textutil.Normalize(message)

	// 1. Global commands clear any active flow unconditionally.
	if isGreeting(normalized) || isToken(menuTokens, normalized) {
		s.States.Clear(turn.SessionID)
		return flow.Reply{Text: catalog.MainMenu, Suggestions: menuSuggestions}, "menu"
	}
	if isToken(cancelTokens, normalized) {
		s.States.Clear(turn.SessionID)
		return flow.Reply{Text: catalog.CancelReply, Suggestions: menuSuggestions}, "cancel"
	}

	// 2. An active flow consumes the turn exclusively.
	if st := s.States.Active(turn.SessionID); st != nil {
		engine, ok := s.Flows.Get(st.Kind)
		if !ok {
			// A kind with no engine can only come from a wiring bug.
			s.States.Clear(turn.SessionID)
		} else {
			reply, done, err := engine.Next(ctx, turn, st, message)
			if err != nil {
				log.Error().Err(err).Str("session_id", turn.SessionID).Str("flow", string(st.Kind)).Msg("flow step failed")
				s.States.Clear(turn.SessionID)
				return flow.Reply{Text: flowFailureReply, Suggestions: menuSuggestions}, "flow-error"
			}
			if done {
				s.States.Clear(turn.SessionID)
			}
			return reply, "flow:" + string(st.Kind)
		}
	}

	// 3. FAQ / menu table, first match wins.
	if rule, ok := s.FAQ.Match(message); ok {
		if rule.StartFlow != "" {
			return s.startFlow(ctx, turn, rule.StartFlow), "start:" + string(rule.StartFlow)
		}
		return flow.Reply{Text: rule.Reply(), Suggestions: rule.Suggestions}, "faq:" + rule.Name
	}

	// 4. AI fallback, verbatim text.
	return flow.Reply{Text: s.AI.Ask(ctx, turn.SessionID, message)}, "ai"
}

// startFlow replaces any active state with a fresh one and returns the first
// step's prompt.
func (s *RouterService) startFlow(ctx context.Context, turn flow.Turn, kind flow.Kind) flow.Reply {
	engine, ok := s.Flows.Get(kind)
	if !ok {
		return flow.Reply{Text: flowFailureReply, Suggestions: menuSuggestions}
	}
	s.States.Start(turn.SessionID, kind)
	reply, err := engine.Begin(ctx, turn)
	if err != nil {
		log.Error().Err(err).Str("session_id", turn.SessionID).Str("flow", string(kind)).Msg("flow begin failed")
		s.States.Clear(turn.SessionID)
		return flow.Reply{Text: flowFailureReply, Suggestions: menuSuggestions}
	}
	return reply
}

// persistTurn appends the user and bot messages and touches the session.
// Failures are logged and swallowed; the reply still reaches the caller.
// Returns the bot message id, or "" when the write failed.
func (s *RouterService) persistTurn(ctx context.Context, sessionID, userText, botText string) string {
	var botID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(tx, sessionID, domain.RoleUser, userText); err != nil {
			return err
		}
		m, err := repo.CreateMessage(tx, sessionID, domain.RoleBot, botText)
		if err != nil {
			return err
		}
		botID = m.ID
		return repo.TouchSession(ctx, tx, sessionID, preview(userText))
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist turn")
		return ""
	}
	return botID
}

// preview clips text for the session's last-message preview column.
func preview(text string) string {
	const max = 120
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}

func isGreeting(normalized string) bool {
	if _, ok := greetingTokens[normalized]; ok {
		return true
	}
	// "hola lyro", "hola buenos dias" and friends still open with the
	// greeting word.
	first, _, _ := strings.Cut(normalized, " ")
	return first == "hola"
}

func isToken(set map[string]struct{}, normalized string) bool {
	_, ok := set[normalized]
	return ok
}
