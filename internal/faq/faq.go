// Package faq implements the ordered, data-driven keyword table that maps
// normalized user input to canned replies or flow starts. The table is the
// single source of truth for menu options and FAQ shortcuts: rules are
// evaluated top to bottom and the first match wins, so more specific rules
// must precede more general ones.
package faq

import (
	"strings"

	"github.com/capacitamente/lyro-backend/internal/catalog"
	"github.com/capacitamente/lyro-backend/internal/flow"
	"github.com/capacitamente/lyro-backend/internal/textutil"
)

// Rule is one (pattern set → action) entry. Exact patterns compare against
// the whole normalized input; Contains patterns match anywhere in it.
// Exactly one of Reply and StartFlow is set.
type Rule struct {
	Name     string
	Exact    []string
	Contains []string

	// Reply produces the canned answer. Left nil when the rule starts a flow.
	Reply func() string
	// StartFlow names the flow to start instead of answering directly.
	StartFlow flow.Kind
	// Suggestions attached to a canned reply.
	Suggestions []flow.Suggestion
}

// matches reports whether the rule fires for the normalized input.
func (r *Rule) matches(normalized string) bool {
	for _, p := range r.Exact {
		if normalized == p {
			return true
		}
	}
	for _, p := range r.Contains {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

// Matcher evaluates an ordered rule list.
type Matcher struct {
	rules []Rule
}

// NewMatcher builds a matcher over the given rules, evaluated in order.
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Match normalizes the input and returns the first firing rule.
func (m *Matcher) Match(input string) (*Rule, bool) {
	normalized := textutil.Normalize(input)
	if normalized == "" {
		return nil, false
	}
	for i := range m.rules {
		if m.rules[i].matches(normalized) {
			return &m.rules[i], true
		}
	}
	return nil, false
}

var enrollSuggestion = []flow.Suggestion{{Value: "4", Label: "Inscribirme 📝"}}

// Default returns the bot's rule table. Order matters: numbered menu options
// and the more specific keyword rules come first.
func Default() *Matcher {
	return NewMatcher([]Rule{
		{
			Name:        "certificate-courses",
			Exact:       []string{"2"},
			Contains:    []string{"cursos con certificado", "con certificado"},
			Reply:       catalog.CertificateCoursesReply,
			Suggestions: enrollSuggestion,
		},
		{
			Name:      "certificate-status",
			Exact:     []string{"3"},
			Contains:  []string{"estado de mi certificado", "mi certificado"},
			StartFlow: flow.KindCertificateStatus,
		},
		{
			Name:      "enroll",
			Exact:     []string{"4"},
			Contains:  []string{"inscrib", "matricul", "quiero el curso"},
			StartFlow: flow.KindEnrollment,
		},
		{
			Name:      "schedule",
			Exact:     []string{"5"},
			Contains:  []string{"horario"},
			StartFlow: flow.KindSchedule,
		},
		{
			Name:      "advisor",
			Exact:     []string{"6"},
			Contains:  []string{"recomiend", "que curso me", "cual curso"},
			StartFlow: flow.KindAdvisorQuiz,
		},
		{
			Name:      "verify",
			Exact:     []string{"7"},
			Contains:  []string{"verificar", "ya estoy inscrit", "mi inscripcion"},
			StartFlow: flow.KindVerification,
		},
		{
			Name:     "contact",
			Exact:    []string{"8"},
			Contains: []string{"contacto", "donacion", "donar", "telefono", "correo", "ubicacion", "direccion"},
			Reply:    func() string { return catalog.ContactReply },
		},
		{
			Name:        "courses",
			Exact:       []string{"1"},
			Contains:    []string{"cursos", "curso", "precio", "costo", "cuanto cuesta", "gratis", "gratuito"},
			Reply:       catalog.CoursesReply,
			Suggestions: enrollSuggestion,
		},
		{
			Name:     "thanks",
			Exact:    []string{"gracias", "muchas gracias", "ok gracias"},
			Contains: []string{},
			Reply: func() string {
				return "¡Con mucho gusto! 💚 Escribe *menu* si necesitas algo más."
			},
		},
	})
}
