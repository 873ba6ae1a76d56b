//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/inkpost/inkpost/internal/testutil"
)

// newTestRepository connects to DATABASE_URL, serializes access with an
// advisory lock and resets the schema.
func newTestRepository(t *testing.T) (*Repository, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("failed to acquire DB lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("failed to release DB lock: %v", err)
		}
	})

	if err := repo.ResetSchema(ctx); err != nil {
		t.Fatalf("failed to reset schema: %v", err)
	}

	return repo, ctx
}
