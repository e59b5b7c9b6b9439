// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's index set is reconciled
idempotently. Problems are aggregated so every failing collection is
reported and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, spec := range specs() {
		if err := ensureIndexSet(ctx, db.Collection(spec.collection), spec.models); err != nil {
			problems = append(problems, spec.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionSpec struct {
	collection string
	models     []mongo.IndexModel
}

func index(name string, unique bool, keys ...string) mongo.IndexModel {
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: 1})
	}
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: d, Options: opts}
}

func specs() []collectionSpec {
	return []collectionSpec{
		{"evaluations", []mongo.IndexModel{
			index("idx_eval_start_state", false, "start_date", "state"),
			index("idx_eval_owner", false, "owner_id", "created_at"),
		}},
		// node_id is absent on direct rows, so two direct rows for the same
		// group collide on (evaluation, group, null).
		{"eval_assign_groups", []mongo.IndexModel{
			index("uniq_assign_eval_group_node", true, "evaluation_id", "group_id", "node_id"),
			index("idx_assign_eval_created", false, "evaluation_id", "created_at"),
		}},
		{"eval_assign_nodes", []mongo.IndexModel{
			index("uniq_assign_eval_node", true, "evaluation_id", "node_id"),
		}},
		{"hierarchy_nodes", []mongo.IndexModel{
			index("idx_node_parent", false, "parent_id"),
		}},
		{"groups", []mongo.IndexModel{
			index("idx_group_name", false, "name"),
		}},
		{"group_memberships", []mongo.IndexModel{
			index("uniq_membership_group_user", true, "group_id", "user_id"),
			index("idx_membership_user", false, "user_id"),
		}},
		{"responses", []mongo.IndexModel{
			index("uniq_response_eval_owner_group", true, "evaluation_id", "owner_id", "group_id"),
			index("idx_response_eval_end", false, "evaluation_id", "end_time"),
		}},
		{"answers", []mongo.IndexModel{
			index("idx_answer_eval_response", false, "evaluation_id", "response_id", "template_item_id"),
			index("idx_answer_response", false, "response_id"),
		}},
		{"template_items", []mongo.IndexModel{
			index("idx_item_template_order", false, "template_id", "display_order"),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// isDuplicateKeyErr reports an E11000 from index creation.
func isDuplicateKeyErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet creates missing indexes, renames ones whose keys match but
// whose name differs, and rebuilds ones whose uniqueness differs.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// a collection that does not exist yet has no indexes
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		unique := isUnique(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique))

		ex, found := existing[sig]
		switch {
		case found && ex.Name == name && isUnique(ex.Unique) == unique:
			log.Debug("index up to date")
			continue
		case found:
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
			log.Info("dropped index for rebuild", zap.String("old_name", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		log.Info("index created", zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
