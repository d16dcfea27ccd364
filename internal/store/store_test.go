package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/manash/bizforge/pkg/models"
)

func testStore(t *testing.T) *DB {
	t.Helper()
	db, err := OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.LoadProfile(context.Background()); err != nil {
		t.Errorf("LoadProfile() error = %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	want := models.BrandVoiceProfile{Tone: "Warm"}
	if err := db.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	db.Close()

	// Migrations must be idempotent across restarts.
	db, err = OpenPath(path)
	if err != nil {
		t.Fatalf("second OpenPath() error = %v", err)
	}
	defer db.Close()

	got, err := db.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadProfile() = %+v, want %+v", got, want)
	}
}

func TestDB_SessionSlot(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	got, err := db.LoadSession(ctx)
	if err != nil || got != nil {
		t.Fatalf("LoadSession() on empty slot = %+v, %v; want nil, nil", got, err)
	}

	first := &models.Session{Token: "t1", SubjectID: "u-1", DisplayName: "Ada", Email: "ada@example.com", ExpiresAtMs: 1000}
	if err := db.SaveSession(ctx, first); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	second := &models.Session{Token: "t2", SubjectID: "u-2", AvatarURI: "https://example.com/b.png", ExpiresAtMs: 2000}
	if err := db.SaveSession(ctx, second); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	got, err = db.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("LoadSession() mismatch (-want +got):\n%s", diff)
	}

	if err := db.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	if got, _ := db.LoadSession(ctx); got != nil {
		t.Errorf("LoadSession() after clear = %+v", got)
	}
}

func TestDB_ProfileSlot(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	got, err := db.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("LoadProfile() on empty slot = %+v", got)
	}

	db.SaveProfile(ctx, models.BrandVoiceProfile{Personality: "Old", Industry: "Food", TargetAudience: "Kids", Tone: "Fun"})
	want := models.BrandVoiceProfile{Personality: "New", Tone: "Serious"}
	if err := db.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	// Whole-record replacement: no fields survive from the previous write.
	got, _ = db.LoadProfile(ctx)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadProfile() mismatch (-want +got):\n%s", diff)
	}
}
