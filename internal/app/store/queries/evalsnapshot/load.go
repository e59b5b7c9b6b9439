package evalsnapshot

import (
	"context"
	"errors"

	answerstore "github.com/dalemusser/evalhub/internal/app/store/answers"
	assignstore "github.com/dalemusser/evalhub/internal/app/store/assignments"
	evaluationstore "github.com/dalemusser/evalhub/internal/app/store/evaluations"
	hierarchystore "github.com/dalemusser/evalhub/internal/app/store/hierarchy"
	membershipstore "github.com/dalemusser/evalhub/internal/app/store/memberships"
	responsestore "github.com/dalemusser/evalhub/internal/app/store/responses"
	scalestore "github.com/dalemusser/evalhub/internal/app/store/scales"
	templateitemstore "github.com/dalemusser/evalhub/internal/app/store/templateitems"
	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Load reads everything one evaluation's report needs. Independent
// collections are fetched concurrently in two rounds: the first round
// gives the assignment rows and template, the second the hierarchy
// subtrees, memberships and scales they reference.
func Load(ctx context.Context, db *mongo.Database, evalID primitive.ObjectID) (*Snapshot, error) {
	const op = "evalsnapshot.Load"

	ev, err := evaluationstore.New(db).GetByID(ctx, evalID)
	if errors.Is(err, evaluationstore.ErrNotFound) {
		return nil, evalerrors.NotFound(op, err, "evaluation %s", evalID.Hex())
	}
	if err != nil {
		return nil, err
	}

	var (
		groups    []models.AssignGroup
		nodes     []models.AssignHierarchyNode
		responses []models.Response
		answers   []models.Answer
		items     []models.TemplateItem
	)
	assign := assignstore.New(db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		groups, err = assign.ListGroups(gctx, evalID)
		return err
	})
	g.Go(func() (err error) {
		nodes, err = assign.ListNodes(gctx, evalID)
		return err
	})
	g.Go(func() (err error) {
		responses, err = responsestore.New(db).ListByEvaluation(gctx, evalID)
		return err
	})
	g.Go(func() (err error) {
		answers, err = answerstore.New(db).ListByEvaluation(gctx, evalID)
		return err
	})
	g.Go(func() (err error) {
		items, err = templateitemstore.New(db).ListByTemplate(gctx, ev.TemplateID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		tree    []models.HierarchyNode
		members []models.GroupMembership
		scales  []models.Scale
	)
	roots := make([]primitive.ObjectID, 0, len(nodes))
	for _, n := range nodes {
		roots = append(roots, n.NodeID)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tree, err = hierarchystore.New(db).Subtrees(gctx, roots)
		if err != nil {
			return err
		}
		// memberships depend on the groups reached through the tree
		members, err = membershipstore.New(db).ListByGroups(gctx, groupIDs(groups, tree), "")
		return err
	})
	g.Go(func() (err error) {
		scales, err = scalestore.New(db).ByIDs(gctx, scaleIDs(items))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New().
		AddEvaluation(ev).
		AddAssignGroups(groups...).
		AddAssignNodes(nodes...).
		AddNodes(tree...).
		AddMembers(members...).
		AddResponses(responses...).
		AddAnswers(answers...).
		AddTemplateItems(items...).
		AddScales(scales...), nil
}

func groupIDs(rows []models.AssignGroup, tree []models.HierarchyNode) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, r := range rows {
		add(r.GroupID)
	}
	for _, n := range tree {
		for _, id := range n.GroupIDs {
			add(id)
		}
	}
	return out
}

func scaleIDs(items []models.TemplateItem) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	for _, it := range items {
		if it.ScaleID != nil && !seen[*it.ScaleID] {
			seen[*it.ScaleID] = true
			out = append(out, *it.ScaleID)
		}
	}
	return out
}
