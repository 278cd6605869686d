// Package flow implements the per-session conversational state machines of
// the support bot: multi-turn guided data collection for certificate status,
// schedule preferences, enrollment, the advisor quiz, and enrollment
// verification.
//
// Each engine owns an ordered step list. A step validates the normalized
// user input, extracts a typed value, and transitions forward; invalid input
// re-prompts without advancing the step or discarding previously collected
// fields. Terminal steps perform their side effect and signal the caller to
// clear the session's state. Backward navigation only happens through the
// router's global reset commands, which drop the whole state.
package flow

import "context"

// Kind identifies one of the mutually exclusive flows. A session has at most
// one active flow; starting a new one discards the prior state entirely.
type Kind string

// Known flow kinds.
const (
	KindCertificateStatus Kind = "certificate_status"
	KindSchedule          Kind = "schedule_preference"
	KindEnrollment        Kind = "enrollment"
	KindAdvisorQuiz       Kind = "advisor_quiz"
	KindVerification      Kind = "enrollment_verification"
)

// DataKey names one collected field inside a flow state.
type DataKey string

// State is the ephemeral, in-process record of a session's active flow.
// It is never persisted and does not survive process restarts.
type State struct {
	Kind Kind
	Step int
	Data map[DataKey]string
}

// NewState returns an empty state at the first step of kind.
func NewState(kind Kind) *State {
	return &State{Kind: kind, Data: make(map[DataKey]string)}
}

// Suggestion is a client-rendered quick-reply shortcut: the label is shown
// to the user, the value is sent back verbatim when tapped.
type Suggestion struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Reply is what an engine hands back for one turn.
type Reply struct {
	Text        string
	Suggestions []Suggestion
}

// Turn carries the request-scoped facts an engine may need for side effects.
type Turn struct {
	SessionID     string
	OwnerIdentity string
}

// Engine is one step-sequenced flow. Begin produces the prompt of the first
// step; Next consumes one user turn against the stored state. done reports
// that the flow reached a terminal step and the state must be cleared.
type Engine interface {
	Kind() Kind
	Begin(ctx context.Context, t Turn) (Reply, error)
	Next(ctx context.Context, t Turn, st *State, input string) (reply Reply, done bool, err error)
}

// Registry maps flow kinds to their engines.
type Registry struct {
	engines map[Kind]Engine
}

// NewRegistry builds a registry from the given engines.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[Kind]Engine, len(engines))}
	for _, e := range engines {
		r.engines[e.Kind()] = e
	}
	return r
}

// Get returns the engine registered for kind.
func (r *Registry) Get(kind Kind) (Engine, bool) {
	e, ok := r.engines[kind]
	return e, ok
}
