package store

import (
	"context"
	"testing"

	"cybershield/types"
)

func TestMemoryStoreNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		if _, err := s.Create(ctx, types.Report{Filename: name}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d reports, want 3", len(got))
	}
	for i, want := range []string{"c.mp4", "b.mp4", "a.mp4"} {
		if got[i].Filename != want {
			t.Errorf("reports[%d] = %q, want %q", i, got[i].Filename, want)
		}
	}
}

func TestMemoryStoreAssignsIncreasingIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id1, _ := s.Create(ctx, types.Report{Filename: "first.mp4"})
	id2, _ := s.Create(ctx, types.Report{Filename: "second.mp4"})
	if id2 <= id1 {
		t.Errorf("ids must increase: %d then %d", id1, id2)
	}
}

func TestMemoryStoreLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Create(ctx, types.Report{})
	}

	got, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d reports, want 2", len(got))
	}

	got, _ = s.List(ctx, 100)
	if len(got) != 5 {
		t.Errorf("oversized limit returned %d reports, want 5", len(got))
	}
}
