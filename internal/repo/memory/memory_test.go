package memory

import (
	"context"
	"testing"

	"github.com/hamed0406/pingwatch/internal/domain"
)

func TestMemoryStore_SaveAndLoadTargets(t *testing.T) {
	ctx := context.Background()
	s := New()

	got, err := s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d", len(got))
	}

	in := []domain.Target{{ID: "1", Name: "router", IP: "10.0.0.1"}, {ID: "2", Name: "nas", IP: "10.0.0.2"}}
	if err := s.SaveTargets(ctx, in); err != nil {
		t.Fatalf("SaveTargets: %v", err)
	}
	in[0].Name = "mutated"

	got, err = s.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected targets: %+v", got)
	}
	if got[0].Name != "router" {
		t.Fatalf("store must not alias the caller's slice, got %q", got[0].Name)
	}
}

func TestMemoryStore_SMTP(t *testing.T) {
	ctx := context.Background()
	s := New()

	cfg, err := s.LoadSMTP(ctx)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", cfg, err)
	}

	want := domain.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com", To: "b@example.com"}
	if err := s.SaveSMTP(ctx, want); err != nil {
		t.Fatalf("SaveSMTP: %v", err)
	}
	cfg, err = s.LoadSMTP(ctx)
	if err != nil || cfg == nil || *cfg != want {
		t.Fatalf("got %+v, %v", cfg, err)
	}
}
