package flow

import (
	"context"
	"testing"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

type fakeScheduleWriter struct {
	nextID string
	err    error
	got    *domain.SchedulePreference
}

func (f *fakeScheduleWriter) CreateSchedulePreference(ctx context.Context, p *domain.SchedulePreference) (string, error) {
	f.got = p
	return f.nextID, f.err
}

func TestSchedulePreferenceEngine_RoundTrip(t *testing.T) {
	writer := &fakeScheduleWriter{nextID: "sched-7"}
	cache := NewStore()
	e := &SchedulePreferenceEngine{Schedules: writer, Cache: cache}
	turn := Turn{SessionID: "s1", OwnerIdentity: "tok:v1"}

	st := NewState(KindSchedule)

	reply, done, err := e.Next(context.Background(), turn, st, "quizas")
	if err != nil || done {
		t.Fatalf("invalid time answer: done=%v err=%v", done, err)
	}
	if reply.Text != schedRetryTimeOfDay || st.Step != schedStepTimeOfDay {
		t.Fatalf("invalid time answer must re-prompt in place, reply=%q step=%d", reply.Text, st.Step)
	}

	reply, done, err = e.Next(context.Background(), turn, st, "1")
	if err != nil || done {
		t.Fatalf("time answer: done=%v err=%v", done, err)
	}
	if st.Data[keyTimeOfDay] != TimeMorning || reply.Text != schedPromptDays {
		t.Fatalf("after time answer: data=%v reply=%q", st.Data, reply.Text)
	}

	reply, done, err = e.Next(context.Background(), turn, st, "fin de semana")
	if err != nil || !done {
		t.Fatalf("days answer: done=%v err=%v", done, err)
	}
	if reply.Text != schedDoneReply {
		t.Fatalf("done reply = %q", reply.Text)
	}
	if len(reply.Suggestions) != 1 || reply.Suggestions[0].Value != "4" {
		t.Fatalf("done suggestions = %+v", reply.Suggestions)
	}

	if writer.got == nil {
		t.Fatalf("preference was not persisted")
	}
	if writer.got.OwnerIdentity != "tok:v1" || writer.got.SessionID != "s1" ||
		writer.got.TimeOfDay != TimeMorning || writer.got.Days != DaysWeekend {
		t.Fatalf("persisted preference = %+v", writer.got)
	}

	if id, ok := cache.ScheduleID("s1"); !ok || id != "sched-7" {
		t.Fatalf("schedule id not cached: (%q, %v)", id, ok)
	}
}

func TestSchedulePreferenceEngine_WordAnswers(t *testing.T) {
	writer := &fakeScheduleWriter{nextID: "sched-8"}
	e := &SchedulePreferenceEngine{Schedules: writer, Cache: NewStore()}
	turn := Turn{SessionID: "s2", OwnerIdentity: "anon:abcd"}

	st := NewState(KindSchedule)
	if _, _, err := e.Next(context.Background(), turn, st, "en la NOCHE"); err != nil {
		t.Fatalf("time answer: %v", err)
	}
	if _, _, err := e.Next(context.Background(), turn, st, "entre semana"); err != nil {
		t.Fatalf("days answer: %v", err)
	}
	if writer.got.TimeOfDay != TimeEvening || writer.got.Days != DaysWeekday {
		t.Fatalf("persisted preference = %+v", writer.got)
	}
}
