package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"casefile/internal/store"
	"casefile/internal/store/postgres"
	"casefile/internal/testkit"
)

// Runs against a live database only when CASEFILE_TEST_POSTGRES_DSN is set.
func TestSaves_Postgres(t *testing.T) {
	dsn := os.Getenv("CASEFILE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CASEFILE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	client, err := postgres.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer client.Close(ctx)

	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}

	st := testkit.Story(t)
	state := testkit.State(t, st)
	state.AddEvidence("ev_ledger")

	slot := "pg-test-" + t.Name()
	t.Cleanup(func() { _ = client.DeleteSave(ctx, slot) })

	if err := client.SaveState(ctx, slot, st.Title, state); err != nil {
		t.Fatalf("saving: %v", err)
	}
	loaded, err := client.LoadState(ctx, slot)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if !loaded.HasEvidence("ev_ledger") || loaded.Username != "agent" {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}

	if _, err := client.LoadState(ctx, "pg-test-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
