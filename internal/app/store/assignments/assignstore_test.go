package assignstore_test

import (
	"testing"

	assignstore "github.com/dalemusser/evalhub/internal/app/store/assignments"
	"github.com/dalemusser/evalhub/internal/app/system/indexes"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AssignAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evalID := primitive.NewObjectID()
	g1, g2 := primitive.NewObjectID(), primitive.NewObjectID()

	if _, err := store.AssignGroup(ctx, evalID, g1, ""); err != nil {
		t.Fatalf("AssignGroup failed: %v", err)
	}
	if _, err := store.AssignGroup(ctx, evalID, g2, models.AssignRoleAssistant); err != nil {
		t.Fatalf("AssignGroup failed: %v", err)
	}

	rows, err := store.ListGroups(ctx, evalID)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].GroupID != g1 || rows[0].Role != models.AssignRoleEvaluator {
		t.Errorf("first row: got %+v", rows[0])
	}
	if rows[1].GroupID != g2 || rows[1].Role != models.AssignRoleAssistant {
		t.Errorf("second row: got %+v", rows[1])
	}
}

func TestStore_AssignGroup_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.AssignGroup(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "observer"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestStore_AssignGroup_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := assignstore.New(db)

	evalID, groupID := primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := store.AssignGroup(ctx, evalID, groupID, ""); err != nil {
		t.Fatalf("AssignGroup failed: %v", err)
	}
	if _, err := store.AssignGroup(ctx, evalID, groupID, ""); err != assignstore.ErrDuplicateAssignment {
		t.Errorf("second AssignGroup: got %v, want ErrDuplicateAssignment", err)
	}

	nodeID := primitive.NewObjectID()
	if _, err := store.AssignNode(ctx, evalID, nodeID); err != nil {
		t.Fatalf("AssignNode failed: %v", err)
	}
	if _, err := store.AssignNode(ctx, evalID, nodeID); err != assignstore.ErrDuplicateAssignment {
		t.Errorf("second AssignNode: got %v, want ErrDuplicateAssignment", err)
	}
}

func TestStore_UnassignNodeRemovesMaterializedRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evalID, nodeID := primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := store.AssignNode(ctx, evalID, nodeID); err != nil {
		t.Fatalf("AssignNode failed: %v", err)
	}
	materialized := models.AssignGroup{
		ID:           primitive.NewObjectID(),
		EvaluationID: evalID,
		GroupID:      primitive.NewObjectID(),
		NodeID:       &nodeID,
		Role:         models.AssignRoleEvaluator,
	}
	if _, err := db.Collection("eval_assign_groups").InsertOne(ctx, materialized); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	direct := primitive.NewObjectID()
	if _, err := store.AssignGroup(ctx, evalID, direct, ""); err != nil {
		t.Fatalf("AssignGroup failed: %v", err)
	}

	if err := store.UnassignNode(ctx, evalID, nodeID); err != nil {
		t.Fatalf("UnassignNode failed: %v", err)
	}

	nodes, _ := store.ListNodes(ctx, evalID)
	if len(nodes) != 0 {
		t.Errorf("expected no node bindings, got %d", len(nodes))
	}
	rows, _ := store.ListGroups(ctx, evalID)
	if len(rows) != 1 || rows[0].GroupID != direct {
		t.Errorf("expected only the direct row to remain, got %+v", rows)
	}

	n, err := store.DeleteByEvaluation(ctx, evalID)
	if err != nil || n != 1 {
		t.Errorf("DeleteByEvaluation: got (%d, %v), want (1, nil)", n, err)
	}
}
