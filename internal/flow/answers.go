package flow

import "github.com/capacitamente/lyro-backend/internal/textutil"

// Closed allow-lists for the multiple-choice steps. Matching happens over
// normalized input; each answer maps a set of accepted tokens/phrases to the
// canonical stored value.

// Band values stored for schedule questions.
const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"

	DaysWeekday = "weekday"
	DaysWeekend = "weekend"
)

// Advisor quiz canonical answers.
const (
	PersonaTeacher      = "teacher"
	PersonaParent       = "parent"
	PersonaStudent      = "student"
	PersonaProfessional = "professional"

	InterestSoftSkills = "soft-skills"
	InterestTechnology = "technology"
	InterestEducation  = "education"

	TimeBudgetLow  = "1-2"
	TimeBudgetMid  = "3-5"
	TimeBudgetHigh = "5+"
)

// answerSet maps accepted normalized inputs to a canonical value.
type answerSet map[string]string

// match returns the canonical value for the normalized input, if accepted.
func (a answerSet) match(input string) (string, bool) {
	v, ok := a[textutil.Normalize(input)]
	return v, ok
}

var timeOfDayAnswers = answerSet{
	"1": TimeMorning, "manana": TimeMorning, "en la manana": TimeMorning, "morning": TimeMorning,
	"2": TimeAfternoon, "tarde": TimeAfternoon, "en la tarde": TimeAfternoon, "afternoon": TimeAfternoon,
	"3": TimeEvening, "noche": TimeEvening, "en la noche": TimeEvening, "evening": TimeEvening,
}

var daysAnswers = answerSet{
	"1": DaysWeekday, "entre semana": DaysWeekday, "semana": DaysWeekday, "lunes a viernes": DaysWeekday,
	"2": DaysWeekend, "fin de semana": DaysWeekend, "fines de semana": DaysWeekend, "sabado": DaysWeekend, "domingo": DaysWeekend,
}

var personaAnswers = answerSet{
	"1": PersonaTeacher, "docente": PersonaTeacher, "profesor": PersonaTeacher, "profesora": PersonaTeacher, "maestro": PersonaTeacher, "maestra": PersonaTeacher,
	"2": PersonaParent, "padre": PersonaParent, "madre": PersonaParent, "papa": PersonaParent, "mama": PersonaParent,
	"3": PersonaStudent, "estudiante": PersonaStudent, "alumno": PersonaStudent, "alumna": PersonaStudent,
	"4": PersonaProfessional, "profesional": PersonaProfessional, "emprendedor": PersonaProfessional, "emprendedora": PersonaProfessional,
}

var interestAnswers = answerSet{
	"1": InterestSoftSkills, "habilidades blandas": InterestSoftSkills, "blandas": InterestSoftSkills,
	"2": InterestTechnology, "tecnologia": InterestTechnology,
	"3": InterestEducation, "educacion": InterestEducation, "ensenanza": InterestEducation,
}

var timeBudgetAnswers = answerSet{
	"1": TimeBudgetLow, "1-2": TimeBudgetLow, "1 a 2": TimeBudgetLow, "1 a 2 horas": TimeBudgetLow,
	"2": TimeBudgetMid, "3-5": TimeBudgetMid, "3 a 5": TimeBudgetMid, "3 a 5 horas": TimeBudgetMid,
	"3": TimeBudgetHigh, "5+": TimeBudgetHigh, "mas de 5": TimeBudgetHigh, "mas de 5 horas": TimeBudgetHigh,
}
