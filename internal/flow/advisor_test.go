package flow

import (
	"context"
	"strings"
	"testing"
)

func TestAdvisorQuizEngine_Walk(t *testing.T) {
	e := &AdvisorQuizEngine{}
	turn := Turn{SessionID: "s1"}

	begin, err := e.Begin(context.Background(), turn)
	if err != nil || begin.Text != quizPromptPersona {
		t.Fatalf("Begin = (%q, %v)", begin.Text, err)
	}

	st := NewState(KindAdvisorQuiz)

	reply, done, err := e.Next(context.Background(), turn, st, "ninguno")
	if err != nil || done || reply.Text != quizRetryPersona {
		t.Fatalf("invalid persona: reply=%q done=%v err=%v", reply.Text, done, err)
	}

	if _, _, err := e.Next(context.Background(), turn, st, "estudiante"); err != nil {
		t.Fatalf("persona: %v", err)
	}
	if st.Data[keyPersona] != PersonaStudent || st.Step != quizStepInterest {
		t.Fatalf("state after persona: %+v", st)
	}

	if _, _, err := e.Next(context.Background(), turn, st, "2"); err != nil {
		t.Fatalf("interest: %v", err)
	}

	reply, done, err = e.Next(context.Background(), turn, st, "mas de 5")
	if err != nil || !done {
		t.Fatalf("time budget: done=%v err=%v", done, err)
	}
	if !strings.Contains(reply.Text, "*Tecnología para Educadores*") {
		t.Fatalf("recommendation = %q", reply.Text)
	}
	if len(reply.Suggestions) != 2 || reply.Suggestions[0].Value != "4" {
		t.Fatalf("suggestions = %+v", reply.Suggestions)
	}
}

func TestRecommend_PriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		persona    string
		interest   string
		timeBudget string
		want       string
	}{
		{"parent beats interest", PersonaParent, InterestTechnology, TimeBudgetHigh, "Tecnología para Padres"},
		{"teacher beats interest", PersonaTeacher, InterestSoftSkills, TimeBudgetMid, "Formador de Formadores"},
		{"interest technology", PersonaStudent, InterestTechnology, TimeBudgetLow, "Tecnología para Educadores"},
		{"interest education", PersonaProfessional, InterestEducation, TimeBudgetHigh, "Formador de Formadores"},
		{"interest soft skills", PersonaStudent, InterestSoftSkills, TimeBudgetHigh, "Inteligencia Emocional"},
		{"low time budget", PersonaStudent, "", TimeBudgetLow, "Inteligencia Emocional"},
		{"default", PersonaProfessional, "", TimeBudgetHigh, "Inteligencia Emocional"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course, rationale := recommend(tt.persona, tt.interest, tt.timeBudget)
			if course != tt.want {
				t.Fatalf("recommend(%q, %q, %q) = %q, want %q", tt.persona, tt.interest, tt.timeBudget, course, tt.want)
			}
			if rationale == "" {
				t.Fatalf("rationale must not be empty")
			}
		})
	}
}
