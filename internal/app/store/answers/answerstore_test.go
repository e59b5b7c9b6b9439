package answerstore_test

import (
	"testing"

	answerstore "github.com/dalemusser/evalhub/internal/app/store/answers"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_SaveAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := answerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evalID, respID := primitive.NewObjectID(), primitive.NewObjectID()
	idx := 2
	text := "Very clear"
	err := store.Save(ctx, respID, evalID, []models.Answer{
		{TemplateItemID: primitive.NewObjectID(), NumericIndex: &idx},
		{TemplateItemID: primitive.NewObjectID(), Text: &text},
		{TemplateItemID: primitive.NewObjectID(), NA: true},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.ListByEvaluation(ctx, evalID)
	if err != nil {
		t.Fatalf("ListByEvaluation failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(got))
	}
	nums, texts, nas := 0, 0, 0
	for _, a := range got {
		if a.ResponseID != respID {
			t.Errorf("ResponseID: got %v, want %v", a.ResponseID, respID)
		}
		switch {
		case a.NumericIndex != nil:
			nums++
			if *a.NumericIndex != 2 {
				t.Errorf("NumericIndex: got %d, want 2", *a.NumericIndex)
			}
		case a.Text != nil:
			texts++
		case a.NA:
			nas++
		}
	}
	if nums != 1 || texts != 1 || nas != 1 {
		t.Errorf("got %d numeric, %d text, %d NA", nums, texts, nas)
	}

	n, err := store.DeleteByResponse(ctx, respID)
	if err != nil || n != 3 {
		t.Errorf("DeleteByResponse: got (%d, %v), want (3, nil)", n, err)
	}
}

func TestStore_Save_RejectsBothValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := answerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idx := 1
	text := "x"
	err := store.Save(ctx, primitive.NewObjectID(), primitive.NewObjectID(), []models.Answer{
		{TemplateItemID: primitive.NewObjectID(), NumericIndex: &idx, Text: &text},
	})
	if err == nil {
		t.Error("expected error for answer with index and text")
	}
}
