package flow

import (
	"context"
	"strings"

	"github.com/capacitamente/lyro-backend/internal/catalog"
	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/textutil"
)

// LeadFinder is the narrow read contract for enrollment verification.
type LeadFinder interface {
	// FindLeadsByName returns leads whose full name fuzzily contains the
	// given substring.
	FindLeadsByName(ctx context.Context, nameSub string) ([]domain.Lead, error)

	// FindLeadsByPhoneVariants tries each phone variant in order against the
	// stored (inconsistently formatted) phone column, optionally narrowed by
	// a name substring, and returns the matches of the first variant that
	// hits.
	FindLeadsByPhoneVariants(ctx context.Context, variants []string, nameFilter string) ([]domain.Lead, error)
}

// Verification steps.
const (
	verifyStepName = iota
	verifyStepPhone
)

const (
	verifyPromptName  = "Vamos a verificar tu inscripción. ✅ Escríbeme tu nombre completo."
	verifyRetryName   = "Necesito tu nombre completo para buscar tu inscripción. Escríbelo, por favor."
	verifyPromptPhone = "Encontré varias inscripciones con ese nombre. 🔎 Escríbeme el número de celular con el que te registraste."
	verifyRetryPhone  = "No encontré un número válido. Escríbelo con dígitos, por ejemplo: 0991112233."
)

var verifyNotFoundSuggestions = []Suggestion{{Value: "4", Label: "Inscribirme 📝"}}

// EnrollmentVerificationEngine looks up existing leads by fuzzy name match
// and, when the name alone is ambiguous, disambiguates with phone-variant
// matching: raw first, then digits-only, then the last nine digits. Stored
// phone formats are inconsistent.
type EnrollmentVerificationEngine struct {
	Leads LeadFinder
}

// Kind implements Engine.
func (e *EnrollmentVerificationEngine) Kind() Kind { return KindVerification }

// Begin implements Engine.
func (e *EnrollmentVerificationEngine) Begin(ctx context.Context, t Turn) (Reply, error) {
	return Reply{Text: verifyPromptName}, nil
}

// Next implements Engine.
func (e *EnrollmentVerificationEngine) Next(ctx context.Context, t Turn, st *State, input string) (Reply, bool, error) {
	switch st.Step {
	case verifyStepName:
		name := strings.TrimSpace(input)
		if textutil.Normalize(name) == "" {
			return Reply{Text: verifyRetryName}, false, nil
		}
		rows, err := e.Leads.FindLeadsByName(ctx, name)
		if err != nil {
			return Reply{}, true, err
		}
		switch len(rows) {
		case 0:
			return Reply{Text: verifyNotFound(), Suggestions: verifyNotFoundSuggestions}, true, nil
		case 1:
			return Reply{Text: verifyFound(rows[0])}, true, nil
		default:
			st.Data[keyFullName] = name
			st.Step = verifyStepPhone
			return Reply{Text: verifyPromptPhone}, false, nil
		}

	default: // verifyStepPhone
		phone, ok := textutil.Phone(input)
		if !ok {
			return Reply{Text: verifyRetryPhone}, false, nil
		}
		digits := textutil.Digits(phone)
		variants := []string{phone, digits, textutil.LastN(digits, 9)}
		rows, err := e.Leads.FindLeadsByPhoneVariants(ctx, variants, st.Data[keyFullName])
		if err != nil {
			return Reply{}, true, err
		}
		if len(rows) == 0 {
			return Reply{Text: verifyNotFound(), Suggestions: verifyNotFoundSuggestions}, true, nil
		}
		return Reply{Text: verifyFound(rows[0])}, true, nil
	}
}

func verifyNotFound() string {
	return "No encontré una inscripción con esos datos. 🤔\n" +
		"Si crees que es un error, escríbenos al " + catalog.ContactPhone +
		".\nO si aún no te inscribes, escribe *4* y lo hacemos ahora mismo. 📝"
}

func verifyFound(l domain.Lead) string {
	return "✅ ¡Encontré tu inscripción!\n" +
		"👤 " + l.FullName + "\n" +
		"📚 Curso: " + l.CourseName + "\n" +
		"📱 Contacto: " + l.Phone + "\n" +
		"Te llegará la información del curso por ese número. 💪"
}
