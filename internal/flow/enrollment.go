package flow

import (
	"context"
	"strings"

	"github.com/capacitamente/lyro-backend/internal/catalog"
	"github.com/capacitamente/lyro-backend/internal/textutil"
	"github.com/capacitamente/lyro-backend/internal/domain"
)

// LeadWriter is the narrow write contract for enrollment leads.
type LeadWriter interface {
	// CreateLead persists a fully validated lead. The flow never calls it
	// with missing required fields.
	CreateLead(ctx context.Context, l *domain.Lead) error
}

// Enrollment data keys.
const (
	keyCourse   DataKey = "course"
	keyFullName DataKey = "full_name"
	keyPhone    DataKey = "phone"
)

// Enrollment flow steps.
const (
	enrollStepCourse = iota
	enrollStepTimeOfDay
	enrollStepDays
	enrollStepName
	enrollStepPhone
)

const (
	enrollRetryCourse = "No reconocí ese curso. 🤔 Responde con la letra de la lista o escribe parte del nombre del curso."
	enrollPromptName  = "¿Cuál es tu nombre completo? ✍️"
	enrollRetryName   = "Necesito tu nombre completo para registrarte. Escríbelo, por favor."
	enrollPromptPhone = "¿A qué número de celular podemos contactarte? 📱"
	enrollRetryPhone  = "No encontré un número válido. Escríbelo con dígitos, por ejemplo: 0991112233 o +593991112233."
)

// EnrollmentEngine walks course choice, schedule bands (skipped entirely when
// the session already captured a schedule preference), full name, and phone,
// then persists the lead referencing the cached or just-created schedule id.
type EnrollmentEngine struct {
	Leads     LeadWriter
	Schedules ScheduleWriter
	Cache     *Store
}

// Kind implements Engine.
func (e *EnrollmentEngine) Kind() Kind { return KindEnrollment }

// Begin implements Engine.
func (e *EnrollmentEngine) Begin(ctx context.Context, t Turn) (Reply, error) {
	return Reply{Text: coursePrompt()}, nil
}

// Next implements Engine.
func (e *EnrollmentEngine) Next(ctx context.Context, t Turn, st *State, input string) (Reply, bool, error) {
	switch st.Step {
	case enrollStepCourse:
		course, ok := chooseCourse(input)
		if !ok {
			return Reply{Text: enrollRetryCourse + "\n\n" + coursePrompt()}, false, nil
		}
		st.Data[keyCourse] = course.Name
		if _, cached := e.Cache.ScheduleID(t.SessionID); cached {
			st.Step = enrollStepName
			return Reply{Text: enrollPromptName}, false, nil
		}
		st.Step = enrollStepTimeOfDay
		return Reply{Text: schedPromptTimeOfDay}, false, nil

	case enrollStepTimeOfDay:
		band, ok := timeOfDayAnswers.match(input)
		if !ok {
			return Reply{Text: schedRetryTimeOfDay}, false, nil
		}
		st.Data[keyTimeOfDay] = band
		st.Step = enrollStepDays
		return Reply{Text: schedPromptDays}, false, nil

	case enrollStepDays:
		band, ok := daysAnswers.match(input)
		if !ok {
			return Reply{Text: schedRetryDays}, false, nil
		}
		st.Data[keyDays] = band
		st.Step = enrollStepName
		return Reply{Text: enrollPromptName}, false, nil

	case enrollStepName:
		name := strings.TrimSpace(input)
		if textutil.Normalize(name) == "" {
			return Reply{Text: enrollRetryName}, false, nil
		}
		st.Data[keyFullName] = name
		st.Step = enrollStepPhone
		return Reply{Text: enrollPromptPhone}, false, nil

	default: // enrollStepPhone
		phone, ok := textutil.Phone(input)
		if !ok {
			return Reply{Text: enrollRetryPhone}, false, nil
		}
		st.Data[keyPhone] = phone
		return e.finish(ctx, t, st)
	}
}

// finish resolves the schedule reference and writes the lead. All required
// fields are validated by the time this runs; nothing partial is persisted.
func (e *EnrollmentEngine) finish(ctx context.Context, t Turn, st *State) (Reply, bool, error) {
	scheduleID, cached := e.Cache.ScheduleID(t.SessionID)
	if !cached {
		id, err := e.Schedules.CreateSchedulePreference(ctx, &domain.SchedulePreference{
			OwnerIdentity: t.OwnerIdentity,
			SessionID:     t.SessionID,
			TimeOfDay:     st.Data[keyTimeOfDay],
			Days:          st.Data[keyDays],
		})
		if err != nil {
			return Reply{}, true, err
		}
		e.Cache.SetScheduleID(t.SessionID, id)
		scheduleID = id
	}

	lead := &domain.Lead{
		OwnerIdentity:        t.OwnerIdentity,
		SessionID:            t.SessionID,
		FullName:             st.Data[keyFullName],
		Phone:                st.Data[keyPhone],
		CourseName:           st.Data[keyCourse],
		SchedulePreferenceID: &scheduleID,
	}
	if err := e.Leads.CreateLead(ctx, lead); err != nil {
		return Reply{}, true, err
	}

	return Reply{
		Text: "¡Listo, " + firstName(lead.FullName) + "! 🎉 Registramos tu inscripción al curso *" +
			lead.CourseName + "*.\nTe contactaremos al " + lead.Phone + " para confirmar los detalles. 💪",
	}, true, nil
}

// coursePrompt renders the letter-indexed list of available courses. The
// letters are regenerated from the deterministically sorted list on every
// presentation; they are never stored.
func coursePrompt() string {
	var b strings.Builder
	b.WriteString("¡Genial! 📝 ¿A qué curso deseas inscribirte?\n\n")
	for i, c := range catalog.Available() {
		b.WriteByte(byte('A' + i))
		b.WriteString(") ")
		b.WriteString(c.Name)
		if c.Price != "" {
			b.WriteString(" (")
			b.WriteString(c.Price)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nResponde con la letra o con el nombre del curso.")
	return b.String()
}

// chooseCourse accepts either a single letter indexing the sorted available
// list or a fuzzy name match.
func chooseCourse(input string) (catalog.Course, bool) {
	available := catalog.Available()
	if idx, ok := textutil.LetterChoice(input); ok {
		if idx < len(available) {
			return available[idx], true
		}
		return catalog.Course{}, false
	}
	return catalog.FindCourse(input)
}

// firstName returns the leading word of a full name for a friendly reply.
func firstName(full string) string {
	if fields := strings.Fields(full); len(fields) > 0 {
		return fields[0]
	}
	return full
}
