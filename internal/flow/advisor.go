package flow

import "context"

// Advisor quiz data keys.
const (
	keyPersona    DataKey = "persona"
	keyInterest   DataKey = "interest"
	keyTimeBudget DataKey = "time_budget"
)

// Advisor quiz steps.
const (
	quizStepPersona = iota
	quizStepInterest
	quizStepTimeBudget
)

const (
	quizPromptPersona  = "¡Con gusto te recomiendo un curso! 🤖 Primero cuéntame, ¿cuál describe mejor tu perfil?\n1️⃣ Docente\n2️⃣ Padre o madre\n3️⃣ Estudiante\n4️⃣ Profesional"
	quizRetryPersona   = "Elige una opción válida, por favor:\n1️⃣ Docente\n2️⃣ Padre o madre\n3️⃣ Estudiante\n4️⃣ Profesional"
	quizPromptInterest = "¿Qué área te interesa más? 🎯\n1️⃣ Habilidades blandas\n2️⃣ Tecnología\n3️⃣ Educación"
	quizRetryInterest  = "Elige una opción válida, por favor:\n1️⃣ Habilidades blandas\n2️⃣ Tecnología\n3️⃣ Educación"
	quizPromptTime     = "¿Cuántas horas a la semana puedes dedicar? ⏱️\n1️⃣ 1-2\n2️⃣ 3-5\n3️⃣ 5+"
	quizRetryTime      = "Elige una opción válida, por favor:\n1️⃣ 1-2\n2️⃣ 3-5\n3️⃣ 5+"
)

var quizSuggestions = []Suggestion{{Value: "4", Label: "Inscribirme 📝"}, {Value: "menu", Label: "Ver menú 📋"}}

// AdvisorQuizEngine runs a three-question quiz over closed allow-lists and
// evaluates a fixed-priority rule table: persona override, then interest,
// then time budget, then a default. It never calls the AI gateway.
type AdvisorQuizEngine struct{}

// Kind implements Engine.
func (e *AdvisorQuizEngine) Kind() Kind { return KindAdvisorQuiz }

// Begin implements Engine.
func (e *AdvisorQuizEngine) Begin(ctx context.Context, t Turn) (Reply, error) {
	return Reply{Text: quizPromptPersona}, nil
}

// Next implements Engine.
func (e *AdvisorQuizEngine) Next(ctx context.Context, t Turn, st *State, input string) (Reply, bool, error) {
	switch st.Step {
	case quizStepPersona:
		v, ok := personaAnswers.match(input)
		if !ok {
			return Reply{Text: quizRetryPersona}, false, nil
		}
		st.Data[keyPersona] = v
		st.Step = quizStepInterest
		return Reply{Text: quizPromptInterest}, false, nil

	case quizStepInterest:
		v, ok := interestAnswers.match(input)
		if !ok {
			return Reply{Text: quizRetryInterest}, false, nil
		}
		st.Data[keyInterest] = v
		st.Step = quizStepTimeBudget
		return Reply{Text: quizPromptTime}, false, nil

	default: // quizStepTimeBudget
		v, ok := timeBudgetAnswers.match(input)
		if !ok {
			return Reply{Text: quizRetryTime}, false, nil
		}
		course, rationale := recommend(st.Data[keyPersona], st.Data[keyInterest], v)
		return Reply{
			Text: "✨ Te recomiendo el curso *" + course + "*.\n" + rationale +
				"\n\nEscribe *4* si deseas inscribirte. 📝",
			Suggestions: quizSuggestions,
		}, true, nil
	}
}

// recommend evaluates the rule table in fixed priority order.
func recommend(persona, interest, timeBudget string) (course, rationale string) {
	// Persona overrides beat everything else.
	switch persona {
	case PersonaParent:
		return "Tecnología para Padres", "Está pensado justamente para madres y padres que quieren acompañar a sus hijos en el mundo digital."
	case PersonaTeacher:
		return "Formador de Formadores", "Como docente, te dará herramientas para potenciar tu forma de enseñar."
	}

	switch interest {
	case InterestTechnology:
		return "Tecnología para Educadores", "Es nuestra mejor puerta de entrada al mundo digital, y además es gratuito."
	case InterestEducation:
		return "Formador de Formadores", "Es el curso más completo para quienes quieren dedicarse a enseñar."
	case InterestSoftSkills:
		return "Inteligencia Emocional", "Las habilidades blandas empiezan por conocer y manejar las emociones."
	}

	if timeBudget == TimeBudgetLow {
		return "Inteligencia Emocional", "Se adapta bien a una dedicación de pocas horas semanales."
	}

	return "Inteligencia Emocional", "Es nuestro curso más popular y un excelente punto de partida."
}
