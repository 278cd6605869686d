package genai

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Options configures the gateway's quota, cooldown, retry, and context
// eviction behavior. Zero values get conservative defaults from NewGateway.
type Options struct {
	// SystemPrompt seeds every new conversational context.
	SystemPrompt string

	// DailyQuota caps provider invocations across all sessions per calendar
	// day (reset at midnight in Location).
	DailyQuota int
	// Location is the timezone whose midnight resets the quota.
	Location *time.Location

	// Cooldown is the minimum interval between provider calls for one
	// session; zero disables it.
	Cooldown time.Duration

	// MaxRetries is how many times a transient failure is retried.
	MaxRetries int
	// RetryBackoff is the base of the linearly increasing backoff
	// (base × attempt).
	RetryBackoff time.Duration
	// CallTimeout bounds a single provider call.
	CallTimeout time.Duration

	// ContextTTL evicts contexts idle for longer than this via the sweep.
	ContextTTL time.Duration
	// MaxContexts caps concurrent contexts; beyond it the oldest-idle
	// contexts are evicted first.
	MaxContexts int
	// SweepInterval is the janitor period.
	SweepInterval time.Duration

	// HistoryLimit caps the retained user/assistant exchange pairs per
	// context.
	HistoryLimit int

	// NeutralReply is returned whenever the provider cannot be used
	// (quota, cooldown, failure, blank output).
	NeutralReply string
}

// convContext is the per-session conversation memory.
type convContext struct {
	messages []Message
	lastUsed time.Time
}

// Gateway bounds the generative-AI provider. Ask never returns an error:
// quota exhaustion, cooldown, provider failures, and blank output all
// resolve into the configured neutral reply so the chat never visibly
// breaks.
type Gateway struct {
	client Client
	opts   Options

	mu       sync.Mutex
	contexts map[string]*convContext
	quotaDay string
	quotaN   int

	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// NewGateway builds a gateway around client, applying defaults for unset
// options.
func NewGateway(client Client, opts Options) *Gateway {
	if opts.DailyQuota <= 0 {
		opts.DailyQuota = 100
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 20 * time.Second
	}
	if opts.ContextTTL <= 0 {
		opts.ContextTTL = 30 * time.Minute
	}
	if opts.MaxContexts <= 0 {
		opts.MaxContexts = 500
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}

	g := &Gateway{
		client:   client,
		opts:     opts,
		contexts: make(map[string]*convContext),
		now:      time.Now,
		sleep: func(ctx context.Context, d time.Duration) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
			case <-t.C:
			}
		},
	}
	return g
}

// Start launches the periodic sweep that evicts idle contexts. It returns
// when ctx is canceled.
func (g *Gateway) Start(ctx context.Context) {
	ticker := time.NewTicker(g.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// Ask forwards text to the provider within the session's conversational
// context. The returned string is always safe to show to the end user.
func (g *Gateway) Ask(ctx context.Context, sessionID, text string) string {
	g.mu.Lock()

	// Calendar-day quota: check and reserve under the same critical section
	// so concurrent turns cannot overshoot the cap.
	day := g.now().In(g.opts.Location).Format("2006-01-02")
	if day != g.quotaDay {
		g.quotaDay, g.quotaN = day, 0
	}
	if g.quotaN >= g.opts.DailyQuota {
		g.mu.Unlock()
		log.Debug().Str("session_id", sessionID).Msg("ai quota exhausted")
		return g.opts.NeutralReply
	}

	cc, ok := g.contexts[sessionID]
	if !ok {
		g.evictOverCapLocked(1)
		cc = &convContext{messages: []Message{{Role: "system", Content: g.opts.SystemPrompt}}}
		g.contexts[sessionID] = cc
	}

	// Per-session cooldown.
	if g.opts.Cooldown > 0 && !cc.lastUsed.IsZero() && g.now().Sub(cc.lastUsed) < g.opts.Cooldown {
		g.mu.Unlock()
		log.Debug().Str("session_id", sessionID).Msg("ai cooldown active")
		return g.opts.NeutralReply
	}

	g.quotaN++
	cc.lastUsed = g.now()
	msgs := append(append([]Message(nil), cc.messages...), Message{Role: "user", Content: text})
	g.mu.Unlock()

	reply, ok := g.call(ctx, sessionID, msgs)
	if !ok {
		return g.opts.NeutralReply
	}

	g.mu.Lock()
	cc.messages = append(cc.messages, Message{Role: "user", Content: text}, Message{Role: "assistant", Content: reply})
	cc.messages = trimHistory(cc.messages, g.opts.HistoryLimit)
	cc.lastUsed = g.now()
	g.mu.Unlock()

	return reply
}

// call runs the provider with the retry/backoff policy. ok is false when
// every attempt failed or the provider returned blank output.
func (g *Gateway) call(ctx context.Context, sessionID string, msgs []Message) (string, bool) {
	for attempt := 1; attempt <= 1+g.opts.MaxRetries; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
		reply, err := g.client.Reply(cctx, msgs)
		cancel()

		if err == nil {
			if reply == "" {
				log.Warn().Str("session_id", sessionID).Msg("ai provider returned blank output")
				return "", false
			}
			return reply, true
		}

		if !IsTransient(err) || attempt > g.opts.MaxRetries {
			log.Warn().Err(err).Str("session_id", sessionID).Int("attempt", attempt).Msg("ai provider call failed")
			return "", false
		}

		g.sleep(ctx, g.opts.RetryBackoff*time.Duration(attempt))
	}
	return "", false
}

// sweep drops contexts idle beyond the TTL, then trims to the cap.
func (g *Gateway) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.opts.ContextTTL)
	for id, cc := range g.contexts {
		if cc.lastUsed.Before(cutoff) {
			delete(g.contexts, id)
		}
	}
	g.evictOverCapLocked(0)
}

// evictOverCapLocked removes oldest-idle contexts until len+headroom fits
// under MaxContexts. Callers hold the lock.
func (g *Gateway) evictOverCapLocked(headroom int) {
	excess := len(g.contexts) + headroom - g.opts.MaxContexts
	if excess <= 0 {
		return
	}

	type entry struct {
		id       string
		lastUsed time.Time
	}
	all := make([]entry, 0, len(g.contexts))
	for id, cc := range g.contexts {
		all = append(all, entry{id, cc.lastUsed})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].lastUsed.Before(all[j].lastUsed) })
	for i := 0; i < excess && i < len(all); i++ {
		delete(g.contexts, all[i].id)
	}
}

// trimHistory keeps the system prompt plus the most recent limit exchange
// pairs.
func trimHistory(msgs []Message, limit int) []Message {
	max := 1 + 2*limit
	if len(msgs) <= max {
		return msgs
	}
	out := make([]Message, 0, max)
	out = append(out, msgs[0])
	out = append(out, msgs[len(msgs)-2*limit:]...)
	return out
}
