package postgres

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return store
}

func TestPostgresStore_SaveLoadTargets(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	in := []domain.Target{
		{ID: "b", Name: "nas", IP: "10.0.0.2"},
		{ID: "a", Name: "router", IP: "10.0.0.1"},
	}
	if err := store.SaveTargets(ctx, in); err != nil {
		t.Fatalf("SaveTargets: %v", err)
	}
	got, err := store.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(got) != 2 || got[0] != in[0] || got[1] != in[1] {
		t.Fatalf("order or content lost: %+v", got)
	}

	if err := store.SaveTargets(ctx, in[1:]); err != nil {
		t.Fatalf("SaveTargets: %v", err)
	}
	got, err = store.LoadTargets(ctx)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("replace-all failed: %+v", got)
	}

	if err := store.SaveTargets(ctx, nil); err != nil {
		t.Fatalf("SaveTargets(nil): %v", err)
	}
}

func TestPostgresStore_SMTPUpsert(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	want := domain.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p", From: "a@example.com", To: "b@example.com"}
	if err := store.SaveSMTP(ctx, want); err != nil {
		t.Fatalf("SaveSMTP: %v", err)
	}
	want.Port = 465
	want.Secure = true
	if err := store.SaveSMTP(ctx, want); err != nil {
		t.Fatalf("SaveSMTP again: %v", err)
	}
	got, err := store.LoadSMTP(ctx)
	if err != nil || got == nil {
		t.Fatalf("LoadSMTP: %+v %v", got, err)
	}
	if *got != want {
		t.Fatalf("got %+v want %+v", *got, want)
	}
}
