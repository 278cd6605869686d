package flow

import (
	"testing"
	"time"
)

func TestStore_StartActiveClear(t *testing.T) {
	s := NewStore()

	if st := s.Active("s1"); st != nil {
		t.Fatalf("expected no active state for fresh session")
	}

	st := s.Start("s1", KindEnrollment)
	if st.Kind != KindEnrollment || st.Step != 0 || len(st.Data) != 0 {
		t.Fatalf("fresh state malformed: %+v", st)
	}
	if got := s.Active("s1"); got != st {
		t.Fatalf("Active should return the started state")
	}

	// Starting another flow replaces the state wholesale.
	st.Data["course"] = "Inteligencia Emocional"
	st2 := s.Start("s1", KindAdvisorQuiz)
	if st2 == st {
		t.Fatalf("Start must create a fresh state")
	}
	if len(st2.Data) != 0 {
		t.Fatalf("replaced state leaked data: %+v", st2.Data)
	}

	s.Clear("s1")
	if s.Active("s1") != nil {
		t.Fatalf("Clear should drop the state")
	}
}

func TestStore_ScheduleCacheSurvivesClear(t *testing.T) {
	s := NewStore()
	s.Start("s1", KindSchedule)
	s.SetScheduleID("s1", "sched-42")
	s.Clear("s1")

	id, ok := s.ScheduleID("s1")
	if !ok || id != "sched-42" {
		t.Fatalf("schedule cache must survive flow reset, got (%q, %v)", id, ok)
	}

	if _, ok := s.ScheduleID("other"); ok {
		t.Fatalf("cache must be per session")
	}
}

func TestStore_LockTurnSerializesSameSession(t *testing.T) {
	s := NewStore()

	unlock := s.LockTurn("s1")

	acquired := make(chan struct{})
	go func() {
		u := s.LockTurn("s1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatalf("second turn acquired the lock while the first held it")
	case <-time.After(20 * time.Millisecond):
	}

	// A different session must not contend.
	done := make(chan struct{})
	go func() {
		u := s.LockTurn("s2")
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("different session blocked on unrelated turn lock")
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second turn never acquired the lock after release")
	}
}
