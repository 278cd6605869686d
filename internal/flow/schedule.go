package flow

import (
	"context"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// ScheduleWriter is the narrow write contract for schedule preferences.
type ScheduleWriter interface {
	// CreateSchedulePreference persists a preference and returns its
	// generated id.
	CreateSchedulePreference(ctx context.Context, p *domain.SchedulePreference) (string, error)
}

// Data keys shared with the enrollment flow.
const (
	keyTimeOfDay DataKey = "time_of_day"
	keyDays      DataKey = "days"
)

// Schedule flow steps.
const (
	schedStepTimeOfDay = iota
	schedStepDays
)

const (
	schedPromptTimeOfDay = "¡Perfecto! ⏰ ¿En qué horario prefieres estudiar?\n1️⃣ Mañana\n2️⃣ Tarde\n3️⃣ Noche"
	schedRetryTimeOfDay  = "Elige una opción válida, por favor:\n1️⃣ Mañana\n2️⃣ Tarde\n3️⃣ Noche"
	schedPromptDays      = "¿Y qué días te acomodan más? 📅\n1️⃣ Entre semana\n2️⃣ Fin de semana"
	schedRetryDays       = "Elige una opción válida, por favor:\n1️⃣ Entre semana\n2️⃣ Fin de semana"
	schedDoneReply       = "¡Anotado! 📌 Guardamos tu preferencia de horario.\nEscribe *4* cuando quieras inscribirte en un curso; ya no te volveremos a preguntar el horario. 📝"
)

var schedDoneSuggestions = []Suggestion{{Value: "4", Label: "Inscribirme 📝"}}

// SchedulePreferenceEngine captures a time-of-day band and a day band from
// closed allow-lists, persists the preference, and caches its id on the
// session so a later enrollment flow skips both questions.
type SchedulePreferenceEngine struct {
	Schedules ScheduleWriter
	Cache     *Store
}

// Kind implements Engine.
func (e *SchedulePreferenceEngine) Kind() Kind { return KindSchedule }

// Begin implements Engine.
func (e *SchedulePreferenceEngine) Begin(ctx context.Context, t Turn) (Reply, error) {
	return Reply{Text: schedPromptTimeOfDay}, nil
}

// Next implements Engine.
func (e *SchedulePreferenceEngine) Next(ctx context.Context, t Turn, st *State, input string) (Reply, bool, error) {
	switch st.Step {
	case schedStepTimeOfDay:
		band, ok := timeOfDayAnswers.match(input)
		if !ok {
			return Reply{Text: schedRetryTimeOfDay}, false, nil
		}
		st.Data[keyTimeOfDay] = band
		st.Step = schedStepDays
		return Reply{Text: schedPromptDays}, false, nil

	default: // schedStepDays
		band, ok := daysAnswers.match(input)
		if !ok {
			return Reply{Text: schedRetryDays}, false, nil
		}
		id, err := e.Schedules.CreateSchedulePreference(ctx, &domain.SchedulePreference{
			OwnerIdentity: t.OwnerIdentity,
			SessionID:     t.SessionID,
			TimeOfDay:     st.Data[keyTimeOfDay],
			Days:          band,
		})
		if err != nil {
			return Reply{}, true, err
		}
		e.Cache.SetScheduleID(t.SessionID, id)
		return Reply{Text: schedDoneReply, Suggestions: schedDoneSuggestions}, true, nil
	}
}
