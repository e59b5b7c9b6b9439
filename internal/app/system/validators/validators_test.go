package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/evalhub/internal/app/system/validators"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expected := []string{
		"evaluations",
		"template_items",
		"scales",
		"eval_assign_groups",
		"eval_assign_nodes",
		"hierarchy_nodes",
		"groups",
		"group_memberships",
		"responses",
		"answers",
		"eval_settings",
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range expected {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestEvaluationsValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	valid := bson.M{
		"title":       "Spring survey",
		"template_id": primitive.NewObjectID(),
		"start_date":  now,
		"due_date":    now.Add(time.Hour),
	}
	if _, err := db.Collection("evaluations").InsertOne(ctx, valid); err != nil {
		t.Fatalf("valid evaluation rejected: %v", err)
	}

	if _, err := db.Collection("evaluations").InsertOne(ctx, bson.M{"title": "No dates"}); err == nil {
		t.Error("expected validation error for evaluation without dates")
	}

	bad := bson.M{
		"title":                "Bad selection",
		"template_id":          primitive.NewObjectID(),
		"start_date":           now,
		"due_date":             now,
		"instructor_selection": "some",
	}
	if _, err := db.Collection("evaluations").InsertOne(ctx, bad); err == nil {
		t.Error("expected validation error for unknown selection option")
	}
}

func TestGroupMembershipsValidator_Role(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := func(role string) bson.M {
		return bson.M{
			"user_id":  primitive.NewObjectID(),
			"group_id": primitive.NewObjectID(),
			"role":     role,
		}
	}
	if _, err := db.Collection("group_memberships").InsertOne(ctx, doc("instructor")); err != nil {
		t.Fatalf("valid membership rejected: %v", err)
	}
	if _, err := db.Collection("group_memberships").InsertOne(ctx, doc("leader")); err == nil {
		t.Error("expected validation error for unknown membership role")
	}
}

func TestTemplateItemsValidator_Classification(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := func(class string) bson.M {
		return bson.M{
			"template_id":    primitive.NewObjectID(),
			"classification": class,
			"category":       "course",
			"display_order":  1,
		}
	}
	if _, err := db.Collection("template_items").InsertOne(ctx, doc("scaled")); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}
	if _, err := db.Collection("template_items").InsertOne(ctx, doc("matrix")); err == nil {
		t.Error("expected validation error for unknown classification")
	}
}

func TestAnswersValidator_IndexXorText(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := func() bson.M {
		return bson.M{
			"response_id":      primitive.NewObjectID(),
			"evaluation_id":    primitive.NewObjectID(),
			"template_item_id": primitive.NewObjectID(),
		}
	}

	scaled := base()
	scaled["numeric_index"] = 2
	if _, err := db.Collection("answers").InsertOne(ctx, scaled); err != nil {
		t.Fatalf("scaled answer rejected: %v", err)
	}

	essay := base()
	essay["text"] = "good"
	if _, err := db.Collection("answers").InsertOne(ctx, essay); err != nil {
		t.Fatalf("essay answer rejected: %v", err)
	}

	both := base()
	both["numeric_index"] = 1
	both["text"] = "both"
	if _, err := db.Collection("answers").InsertOne(ctx, both); err == nil {
		t.Error("expected validation error for answer with index and text")
	}

	negative := base()
	negative["numeric_index"] = -1
	if _, err := db.Collection("answers").InsertOne(ctx, negative); err == nil {
		t.Error("expected validation error for negative index")
	}
}
