package groupstore_test

import (
	"testing"

	groupstore "github.com/dalemusser/evalhub/internal/app/store/groups"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Group{Name: "STAT 101 - 01"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify ID was assigned
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}

	// Verify timestamps
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	// Verify default status
	if created.Status != groupstore.StatusActive {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
}

func TestStore_ByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, _ := store.Create(ctx, models.Group{Name: "B"})
	a, _ := store.Create(ctx, models.Group{Name: "A"})
	_, _ = store.Create(ctx, models.Group{Name: "C"})

	got, err := store.ByIDs(ctx, []primitive.ObjectID{b.ID, a.ID})
	if err != nil {
		t.Fatalf("ByIDs failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("got %+v, want A then B", got)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, _ := store.Create(ctx, models.Group{Name: "Archive me"})
	if err := store.SetStatus(ctx, g.ID, groupstore.StatusArchived); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ := store.GetByID(ctx, g.ID)
	if got.Status != groupstore.StatusArchived {
		t.Errorf("Status: got %q, want %q", got.Status, groupstore.StatusArchived)
	}
	if err := store.SetStatus(ctx, g.ID, "deleted"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, _ := store.Create(ctx, models.Group{Name: "Gone"})
	n, err := store.Delete(ctx, g.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: got (%d, %v), want (1, nil)", n, err)
	}
	if _, err := store.GetByID(ctx, g.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after Delete: got %v, want ErrNoDocuments", err)
	}
}
