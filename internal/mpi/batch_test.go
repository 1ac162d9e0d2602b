package mpi

import (
	"context"
	"errors"
	"testing"
)

func TestMatchBatch(t *testing.T) {
	m := NewMatcher(NewWeightedStrategy(), nil)
	stranger := Record{FirstName: "Jane", LastName: "Smith", DOB: "1985-03-12", GenderAtBirth: "F"}

	items := []BatchItem{
		{Subject: baseSubject(), Candidates: []Record{baseSubject()}},
		{Subject: baseSubject(), Candidates: []Record{stranger}},
		{Subject: baseSubject(), Candidates: nil},
	}
	outcomes, err := m.MatchBatch(context.Background(), items, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	if outcomes[0].Selected != 0 {
		t.Errorf("outcomes[0].Selected = %d, want 0", outcomes[0].Selected)
	}
	if outcomes[1].Selected != -1 {
		t.Errorf("outcomes[1].Selected = %d, want -1", outcomes[1].Selected)
	}
	if outcomes[2].Selected != -1 {
		t.Errorf("outcomes[2].Selected = %d, want -1", outcomes[2].Selected)
	}
}

func TestMatchBatch_InvalidSubjectFailsBatch(t *testing.T) {
	m := NewMatcher(NewWeightedStrategy(), nil)
	items := []BatchItem{
		{Subject: baseSubject()},
		{Subject: Record{FirstName: "only-a-first-name"}},
	}
	_, err := m.MatchBatch(context.Background(), items, 1)
	if !errors.Is(err, ErrInvalidSubject) {
		t.Errorf("err = %v, want ErrInvalidSubject", err)
	}
}

func TestMatchBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMatcher(NewWeightedStrategy(), nil)
	items := []BatchItem{{Subject: baseSubject()}}
	if _, err := m.MatchBatch(ctx, items, 1); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestMatchBatch_Empty(t *testing.T) {
	m := NewMatcher(NewWeightedStrategy(), nil)
	outcomes, err := m.MatchBatch(context.Background(), nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 0 {
		t.Errorf("len(outcomes) = %d, want 0", len(outcomes))
	}
}
