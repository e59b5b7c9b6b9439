package templateitemstore_test

import (
	"testing"

	templateitemstore "github.com/dalemusser/evalhub/internal/app/store/templateitems"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndListInDisplayOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templateitemstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tplID := primitive.NewObjectID()
	scaleID := primitive.NewObjectID()
	for _, it := range []models.TemplateItem{
		{TemplateID: tplID, Text: "third", Classification: models.ClassText, DisplayOrder: 3},
		{TemplateID: tplID, Text: "first", Classification: models.ClassHeader, DisplayOrder: 1},
		{TemplateID: tplID, Text: "second", Classification: models.ClassScaled, ScaleID: &scaleID, DisplayOrder: 2},
		{TemplateID: primitive.NewObjectID(), Text: "other template", Classification: models.ClassText},
	} {
		if _, err := store.Create(ctx, it); err != nil {
			t.Fatalf("Create %q failed: %v", it.Text, err)
		}
	}

	got, err := store.ListByTemplate(ctx, tplID)
	if err != nil {
		t.Fatalf("ListByTemplate failed: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("item %d: got %q, want %q", i, got[i].Text, w)
		}
		if got[i].Category != models.CategoryCourse {
			t.Errorf("item %d: category got %q, want default %q", i, got[i].Category, models.CategoryCourse)
		}
	}
}

func TestStore_Create_ScaledRequiresScale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templateitemstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.TemplateItem{TemplateID: primitive.NewObjectID(), Classification: models.ClassScaled})
	if err == nil {
		t.Error("expected error for scaled item without scale")
	}
}
