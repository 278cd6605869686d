package repo

import (
	"context"
	"testing"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

func TestCreateLead_FillsDefaults(t *testing.T) {
	db := newTestDB(t, "repo-lead-create")
	ctx := context.Background()

	l := &domain.Lead{
		OwnerIdentity: "tok:v1",
		SessionID:     "s1",
		FullName:      "Maria Lopez",
		Phone:         "0991112233",
		CourseName:    "Inteligencia Emocional",
	}
	if err := CreateLead(ctx, db, l); err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.ID == "" || l.CreatedAt.IsZero() {
		t.Fatalf("defaults not filled: %+v", l)
	}
}

func TestFindLeadsByName(t *testing.T) {
	db := newTestDB(t, "repo-lead-name")
	ctx := context.Background()

	for _, l := range []domain.Lead{
		{OwnerIdentity: "a", SessionID: "s1", FullName: "Maria Lopez", Phone: "0991112233", CourseName: "Ofimática"},
		{OwnerIdentity: "a", SessionID: "s2", FullName: "Maria Lopez", Phone: "0983222358", CourseName: "Inteligencia Emocional"},
		{OwnerIdentity: "a", SessionID: "s3", FullName: "Juan Perez", Phone: "0991234567", CourseName: "Ofimática"},
	} {
		l := l
		if err := CreateLead(ctx, db, &l); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rows, err := FindLeadsByName(ctx, db, "Maria")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("matches = %d", len(rows))
	}

	rows, err = FindLeadsByName(ctx, db, "Nadie")
	if err != nil || len(rows) != 0 {
		t.Fatalf("no-match result = %v, %v", rows, err)
	}
}

func TestFindLeadsByPhoneVariants(t *testing.T) {
	db := newTestDB(t, "repo-lead-phone")
	ctx := context.Background()

	// Stored with country code, while the caller typed the local form.
	stored := domain.Lead{
		OwnerIdentity: "a", SessionID: "s1",
		FullName: "Maria Lopez", Phone: "+593991112233", CourseName: "Ofimática",
	}
	if err := CreateLead(ctx, db, &stored); err != nil {
		t.Fatalf("seed: %v", err)
	}
	other := domain.Lead{
		OwnerIdentity: "a", SessionID: "s2",
		FullName: "Juan Perez", Phone: "0983222358", CourseName: "Ofimática",
	}
	if err := CreateLead(ctx, db, &other); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// "0991112233" itself misses; its last nine digits hit the stored row.
	rows, err := FindLeadsByPhoneVariants(ctx, db, []string{"0991112233", "991112233"}, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 || rows[0].FullName != "Maria Lopez" {
		t.Fatalf("rows = %+v", rows)
	}

	// The name filter narrows the candidate set.
	rows, err = FindLeadsByPhoneVariants(ctx, db, []string{"991112233"}, "Juan")
	if err != nil || len(rows) != 0 {
		t.Fatalf("filtered rows = %+v, %v", rows, err)
	}

	// Blank variants are skipped, not matched as wildcards.
	rows, err = FindLeadsByPhoneVariants(ctx, db, []string{"", "0983222358"}, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 || rows[0].FullName != "Juan Perez" {
		t.Fatalf("rows = %+v", rows)
	}
}
