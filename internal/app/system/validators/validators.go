// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/evalhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if unsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("evaluations", evaluationsSchema())
	ensure("template_items", templateItemsSchema())
	ensure("scales", scalesSchema())

	// Assignment and directory collections
	ensure("eval_assign_groups", assignGroupsSchema())
	ensure("eval_assign_nodes", nil)
	ensure("hierarchy_nodes", nil)
	ensure("groups", groupsSchema())
	ensure("group_memberships", groupMembershipsSchema())

	// Submissions
	ensure("responses", responsesSchema())
	ensure("answers", answersSchema())

	ensure("eval_settings", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureCollection creates name unless it already exists. created reports
// whether this call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	names, listErr := db.ListCollectionNames(ctx, bson.M{"name": name})
	if listErr == nil && len(names) > 0 {
		return false, nil
	}
	// Listing failed or raced with another instance: create and treat
	// NamespaceExists as success.
	if err := db.CreateCollection(ctx, name); err != nil {
		if commandErr(err, []int32{48}, "already exists", "namespace exists") {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Debug("validator ensured", zap.String("collection", name))
	return nil
}

// unsupported reports whether the server lacks collMod/validator support.
func unsupported(err error) bool {
	return commandErr(err, []int32{59, 115}, "no such command", "not implemented", "not supported")
}

// commandErr matches err by server error code or by message fragment.
func commandErr(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enum(vals ...string) bson.A {
	out := make(bson.A, 0, len(vals))
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}

func evaluationsSchema() bson.M {
	selection := bson.M{"enum": enum(models.SelectionAll, models.SelectionOne, models.SelectionMany)}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "template_id", "start_date", "due_date"},
			"properties": bson.M{
				"title":                bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"owner_id":             bson.M{"bsonType": "objectId"},
				"template_id":          bson.M{"bsonType": "objectId"},
				"start_date":           bson.M{"bsonType": "date"},
				"due_date":             bson.M{"bsonType": "date"},
				"stop_date":            bson.M{"bsonType": "date"},
				"view_date":            bson.M{"bsonType": "date"},
				"student_view_date":    bson.M{"bsonType": "date"},
				"instructor_view_date": bson.M{"bsonType": "date"},
				"results_private":      bson.M{"bsonType": "bool"},
				"instructor_selection": selection,
				"assistant_selection":  selection,
				"state": bson.M{"enum": enum(
					models.StatePartial.String(), models.StateInQueue.String(), models.StateActive.String(),
					models.StateDue.String(), models.StateGracePeriod.String(), models.StateClosed.String(),
					models.StateViewable.String())},
			},
		},
	}
}

func templateItemsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"template_id", "classification", "category", "display_order"},
			"properties": bson.M{
				"template_id": bson.M{"bsonType": "objectId"},
				"text":        bson.M{"bsonType": "string"},
				"classification": bson.M{"enum": enum(
					models.ClassScaled, models.ClassText, models.ClassHeader,
					models.ClassBlockParent, models.ClassBlockChild)},
				"category":        bson.M{"enum": enum(models.CategoryCourse, models.CategoryInstructor)},
				"display_order":   bson.M{"bsonType": bson.A{"int", "long"}},
				"scale_id":        bson.M{"bsonType": "objectId"},
				"block_parent_id": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func scalesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"options"},
			"properties": bson.M{
				"title":   bson.M{"bsonType": "string"},
				"options": bson.M{"bsonType": "array", "minItems": 1, "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func assignGroupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"evaluation_id", "group_id", "role"},
			"properties": bson.M{
				"evaluation_id": bson.M{"bsonType": "objectId"},
				"group_id":      bson.M{"bsonType": "objectId"},
				"node_id":       bson.M{"bsonType": "objectId"},
				"role":          bson.M{"enum": enum(models.AssignRoleEvaluatee, models.AssignRoleAssistant, models.AssignRoleEvaluator)},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "status"},
			"properties": bson.M{
				"name":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"status": bson.M{"enum": enum("active", "archived")},
			},
		},
	}
}

func groupMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "group_id", "role"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"group_id":   bson.M{"bsonType": "objectId"},
				"role":       bson.M{"enum": enum(models.MemberRoleStudent, models.MemberRoleInstructor, models.MemberRoleAssistant)},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func responsesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"evaluation_id", "group_id", "owner_id", "start_time"},
			"properties": bson.M{
				"evaluation_id": bson.M{"bsonType": "objectId"},
				"group_id":      bson.M{"bsonType": "objectId"},
				"owner_id":      bson.M{"bsonType": "objectId"},
				"start_time":    bson.M{"bsonType": "date"},
				"end_time":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func answersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"response_id", "evaluation_id", "template_item_id"},
			"properties": bson.M{
				"response_id":      bson.M{"bsonType": "objectId"},
				"evaluation_id":    bson.M{"bsonType": "objectId"},
				"template_item_id": bson.M{"bsonType": "objectId"},
				"numeric_index":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"text":             bson.M{"bsonType": "string"},
				"associated_id":    bson.M{"bsonType": "objectId"},
				"na":               bson.M{"bsonType": "bool"},
			},
			// An answer carries a numeric index or text, never both.
			"not": bson.M{"required": bson.A{"numeric_index", "text"}},
		},
	}
}
