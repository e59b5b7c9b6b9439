package hierarchystore_test

import (
	"testing"

	hierarchystore "github.com/dalemusser/evalhub/internal/app/store/hierarchy"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Subtrees(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := hierarchystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := models.HierarchyNode{ID: primitive.NewObjectID(), Title: "University"}
	dept := models.HierarchyNode{ID: primitive.NewObjectID(), ParentID: &root.ID, Title: "Math", GroupIDs: []primitive.ObjectID{primitive.NewObjectID()}}
	course := models.HierarchyNode{ID: primitive.NewObjectID(), ParentID: &dept.ID, Title: "Calculus", GroupIDs: []primitive.ObjectID{primitive.NewObjectID()}}
	other := models.HierarchyNode{ID: primitive.NewObjectID(), Title: "Elsewhere"}

	for _, n := range []models.HierarchyNode{root, dept, course, other} {
		if err := store.Upsert(ctx, n); err != nil {
			t.Fatalf("Upsert %q failed: %v", n.Title, err)
		}
	}

	got, err := store.Subtrees(ctx, []primitive.ObjectID{root.ID, dept.ID})
	if err != nil {
		t.Fatalf("Subtrees failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(got))
	}
	found := map[primitive.ObjectID]bool{}
	for _, n := range got {
		found[n.ID] = true
	}
	for _, n := range []models.HierarchyNode{root, dept, course} {
		if !found[n.ID] {
			t.Errorf("missing node %q", n.Title)
		}
	}
	if found[other.ID] {
		t.Error("unrelated node returned")
	}
}

func TestStore_UpsertReplaces(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := hierarchystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n := models.HierarchyNode{ID: primitive.NewObjectID(), Title: "Old"}
	if err := store.Upsert(ctx, n); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	n.Title = "New"
	if err := store.Upsert(ctx, n); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, err := store.GetByID(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "New" {
		t.Errorf("Title: got %q, want %q", got.Title, "New")
	}
}

func TestStore_Subtrees_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := hierarchystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := store.Subtrees(ctx, nil)
	if err != nil || got != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", got, err)
	}
}
