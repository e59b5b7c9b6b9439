// Package aggregate turns raw answers into reportable statistics:
// histograms for scaled items and numbered plain-text lists for essay
// items.
//
// Only completed responses whose group belongs to the evaluation's resolved
// assignment set contribute. Instructor-category items are partitioned by
// the answer's associated evaluatee and produce one result per evaluatee on
// the roster, including evaluatees nobody answered about.
package aggregate

import (
	"sort"
	"strings"

	"github.com/dalemusser/evalhub/internal/app/system/assignment"
	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/dalemusser/evalhub/internal/app/system/evalsettings"
	"github.com/dalemusser/evalhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Source provides responses, answers and scales.
type Source interface {
	Evaluation(id primitive.ObjectID) (models.Evaluation, bool)
	Responses(evalID primitive.ObjectID) []models.Response
	Answers(responseID primitive.ObjectID) []models.Answer
	Scale(id primitive.ObjectID) (models.Scale, bool)
}

// Assignments is the slice of the assignment resolver the aggregator uses.
type Assignments interface {
	ScopeGroups(evalID primitive.ObjectID, groupIDs []primitive.ObjectID) []primitive.ObjectID
	ResolveEvaluatees(ev models.Evaluation, groupIDs []primitive.ObjectID, responses []models.Response) []assignment.Evaluatee
}

// ScaledResult is the histogram of one scaled item. Histogram has one
// bucket per scale option; NA answers are counted separately.
type ScaledResult struct {
	ItemID    primitive.ObjectID `json:"item_id"`
	Options   []string           `json:"options"`
	Histogram []int              `json:"histogram"`
	NACount   int                `json:"na_count"`
}

// Answered is the number of non-NA answers in the histogram.
func (r ScaledResult) Answered() int {
	n := 0
	for _, c := range r.Histogram {
		n += c
	}
	return n
}

// EssayAnswer is one surviving essay answer with its display number.
type EssayAnswer struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// EvaluateeScaled is a scaled result about one evaluatee.
type EvaluateeScaled struct {
	Evaluatee assignment.Evaluatee `json:"evaluatee"`
	Result    ScaledResult         `json:"result"`
}

// EvaluateeEssay is an essay list about one evaluatee.
type EvaluateeEssay struct {
	Evaluatee assignment.Evaluatee `json:"evaluatee"`
	Answers   []EssayAnswer        `json:"answers"`
}

// Aggregator computes item statistics. It holds no mutable state and is
// safe for concurrent use.
type Aggregator struct {
	src      Source
	assign   Assignments
	settings evalsettings.Settings
	log      *zap.Logger
}

// New constructs an Aggregator. Settings must already be resolved.
func New(src Source, assign Assignments, settings evalsettings.Settings, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{src: src, assign: assign, settings: settings, log: logger}
}

// scope is the set of completed responses feeding one aggregation, in
// submission order.
type scope struct {
	eval      models.Evaluation
	groups    []primitive.ObjectID
	completed []models.Response
	all       []models.Response
}

func (a *Aggregator) scope(evalID primitive.ObjectID, groupIDs []primitive.ObjectID) scope {
	ev, _ := a.src.Evaluation(evalID)
	if ev.ID.IsZero() {
		ev.ID = evalID
	}
	groups := a.assign.ScopeGroups(evalID, groupIDs)
	in := make(map[primitive.ObjectID]bool, len(groups))
	for _, g := range groups {
		in[g] = true
	}

	sc := scope{eval: ev, groups: groups}
	for _, r := range a.src.Responses(evalID) {
		if !in[r.GroupID] {
			continue
		}
		sc.all = append(sc.all, r)
		if r.Completed() {
			sc.completed = append(sc.completed, r)
		}
	}
	sort.SliceStable(sc.completed, func(i, j int) bool {
		ti, tj := *sc.completed[i].EndTime, *sc.completed[j].EndTime
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return sc.completed[i].ID.Hex() < sc.completed[j].ID.Hex()
	})
	return sc
}

// itemAnswers returns the answers to itemID in submission order.
func (a *Aggregator) itemAnswers(sc scope, itemID primitive.ObjectID) []models.Answer {
	var out []models.Answer
	for _, r := range sc.completed {
		for _, ans := range a.src.Answers(r.ID) {
			if ans.TemplateItemID == itemID {
				out = append(out, ans)
			}
		}
	}
	return out
}

func (a *Aggregator) scaleOf(op string, item models.TemplateItem) (models.Scale, error) {
	if item.ScaleID == nil {
		return models.Scale{}, evalerrors.Integrity(op, "item %s (%s) has no scale", item.ID.Hex(), item.Classification)
	}
	sc, ok := a.src.Scale(*item.ScaleID)
	if !ok {
		return models.Scale{}, evalerrors.Integrity(op, "item %s references missing scale %s", item.ID.Hex(), item.ScaleID.Hex())
	}
	if len(sc.Options) == 0 {
		return models.Scale{}, evalerrors.Integrity(op, "scale %s has no options", sc.ID.Hex())
	}
	return sc, nil
}

func checkScaled(op string, item models.TemplateItem) error {
	switch item.Classification {
	case models.ClassScaled, models.ClassBlockChild:
		return nil
	}
	return evalerrors.Integrity(op, "item %s is %q, not a scaled item", item.ID.Hex(), item.Classification)
}

// tally adds one answer to res. Unanswered rows (no index, not NA) are
// ignored.
func tally(op string, res *ScaledResult, ans models.Answer) error {
	if ans.NA {
		res.NACount++
		return nil
	}
	if ans.NumericIndex == nil {
		return nil
	}
	idx := *ans.NumericIndex
	if idx < 0 || idx >= len(res.Histogram) {
		return evalerrors.Integrity(op, "answer %s to item %s has index %d outside [0,%d)",
			ans.ID.Hex(), ans.TemplateItemID.Hex(), idx, len(res.Histogram))
	}
	res.Histogram[idx]++
	return nil
}

func newScaled(itemID primitive.ObjectID, sc models.Scale) ScaledResult {
	return ScaledResult{
		ItemID:    itemID,
		Options:   sc.Options,
		Histogram: make([]int, len(sc.Options)),
	}
}

// AggregateScaledItem builds the histogram of a scaled item over the
// completed responses of the scoped groups (nil groupIDs = whole
// evaluation).
func (a *Aggregator) AggregateScaledItem(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) (ScaledResult, error) {
	const op = "aggregate.AggregateScaledItem"
	if err := checkScaled(op, item); err != nil {
		return ScaledResult{}, err
	}
	sc, err := a.scaleOf(op, item)
	if err != nil {
		return ScaledResult{}, err
	}
	return a.scaledWithScale(op, item, sc, a.scope(evalID, groupIDs))
}

func (a *Aggregator) scaledWithScale(op string, item models.TemplateItem, sc models.Scale, s scope) (ScaledResult, error) {
	res := newScaled(item.ID, sc)
	for _, ans := range a.itemAnswers(s, item.ID) {
		if err := tally(op, &res, ans); err != nil {
			return ScaledResult{}, err
		}
	}
	return res, nil
}

// AggregateBlock aggregates every child of a block parent independently,
// reusing the parent's scale. Children are returned in display order.
func (a *Aggregator) AggregateBlock(parent models.TemplateItem, children []models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]ScaledResult, error) {
	const op = "aggregate.AggregateBlock"
	sc, ordered, err := a.blockSetup(op, parent, children)
	if err != nil {
		return nil, err
	}
	s := a.scope(evalID, groupIDs)

	out := make([]ScaledResult, 0, len(ordered))
	for _, child := range ordered {
		res, err := a.scaledWithScale(op, child, sc, s)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (a *Aggregator) blockSetup(op string, parent models.TemplateItem, children []models.TemplateItem) (models.Scale, []models.TemplateItem, error) {
	if parent.Classification != models.ClassBlockParent {
		return models.Scale{}, nil, evalerrors.Integrity(op, "item %s is %q, not a block parent", parent.ID.Hex(), parent.Classification)
	}
	sc, err := a.scaleOf(op, parent)
	if err != nil {
		return models.Scale{}, nil, err
	}
	for _, c := range children {
		if c.ScaleID != nil && *c.ScaleID != sc.ID {
			return models.Scale{}, nil, evalerrors.Integrity(op, "block child %s uses scale %s, parent %s uses %s",
				c.ID.Hex(), c.ScaleID.Hex(), parent.ID.Hex(), sc.ID.Hex())
		}
	}
	ordered := append([]models.TemplateItem(nil), children...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].DisplayOrder < ordered[j].DisplayOrder })
	return sc, ordered, nil
}

// AggregateEssayItem collects the essay answers to item in submission
// order and numbers them from 1. When blank responses are allowed, blank
// answers are skips and are dropped.
func (a *Aggregator) AggregateEssayItem(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]EssayAnswer, error) {
	const op = "aggregate.AggregateEssayItem"
	if item.Classification != models.ClassText {
		return nil, evalerrors.Integrity(op, "item %s is %q, not an essay item", item.ID.Hex(), item.Classification)
	}
	return a.essay(a.itemAnswers(a.scope(evalID, groupIDs), item.ID)), nil
}

func (a *Aggregator) essay(answers []models.Answer) []EssayAnswer {
	out := []EssayAnswer{}
	for _, ans := range answers {
		if ans.NA {
			continue
		}
		text := ""
		if ans.Text != nil {
			text = htmlsanitize.StripTags(*ans.Text)
		}
		if a.settings.BlankResponsesAllowed && strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, EssayAnswer{Number: len(out) + 1, Text: text})
	}
	return out
}

// Evaluatees returns the evaluatee roster for the scoped groups.
func (a *Aggregator) Evaluatees(evalID primitive.ObjectID, groupIDs []primitive.ObjectID) []assignment.Evaluatee {
	s := a.scope(evalID, groupIDs)
	return a.assign.ResolveEvaluatees(s.eval, groupIDs, s.all)
}

// partition splits answers by associated evaluatee. Answers about users not
// on the roster are dropped.
func (a *Aggregator) partition(evalID primitive.ObjectID, answers []models.Answer, roster []assignment.Evaluatee) map[primitive.ObjectID][]models.Answer {
	on := make(map[primitive.ObjectID]bool, len(roster))
	for _, e := range roster {
		on[e.UserID] = true
	}
	out := make(map[primitive.ObjectID][]models.Answer, len(roster))
	dropped := 0
	for _, ans := range answers {
		if ans.AssociatedID == nil || !on[*ans.AssociatedID] {
			dropped++
			continue
		}
		out[*ans.AssociatedID] = append(out[*ans.AssociatedID], ans)
	}
	if dropped > 0 {
		a.log.Debug("instructor answers without a rostered evaluatee",
			zap.String("evaluation_id", evalID.Hex()),
			zap.Int("dropped", dropped))
	}
	return out
}

// AggregateScaledByEvaluatee builds one histogram per evaluatee for an
// instructor-category scaled item.
func (a *Aggregator) AggregateScaledByEvaluatee(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]EvaluateeScaled, error) {
	const op = "aggregate.AggregateScaledByEvaluatee"
	if err := checkScaled(op, item); err != nil {
		return nil, err
	}
	sc, err := a.scaleOf(op, item)
	if err != nil {
		return nil, err
	}
	s := a.scope(evalID, groupIDs)
	roster := a.assign.ResolveEvaluatees(s.eval, groupIDs, s.all)
	return a.scaledByEvaluatee(op, item, sc, s, roster)
}

func (a *Aggregator) scaledByEvaluatee(op string, item models.TemplateItem, sc models.Scale, s scope, roster []assignment.Evaluatee) ([]EvaluateeScaled, error) {
	parts := a.partition(s.eval.ID, a.itemAnswers(s, item.ID), roster)
	out := make([]EvaluateeScaled, 0, len(roster))
	for _, e := range roster {
		res := newScaled(item.ID, sc)
		for _, ans := range parts[e.UserID] {
			if err := tally(op, &res, ans); err != nil {
				return nil, err
			}
		}
		out = append(out, EvaluateeScaled{Evaluatee: e, Result: res})
	}
	return out, nil
}

// AggregateBlockByEvaluatee aggregates an instructor-category block per
// evaluatee. The outer slice follows the roster, the inner one the
// children's display order.
func (a *Aggregator) AggregateBlockByEvaluatee(parent models.TemplateItem, children []models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]assignment.Evaluatee, [][]ScaledResult, error) {
	const op = "aggregate.AggregateBlockByEvaluatee"
	sc, ordered, err := a.blockSetup(op, parent, children)
	if err != nil {
		return nil, nil, err
	}
	s := a.scope(evalID, groupIDs)
	roster := a.assign.ResolveEvaluatees(s.eval, groupIDs, s.all)

	out := make([][]ScaledResult, len(roster))
	for _, child := range ordered {
		per, err := a.scaledByEvaluatee(op, child, sc, s, roster)
		if err != nil {
			return nil, nil, err
		}
		for i, r := range per {
			out[i] = append(out[i], r.Result)
		}
	}
	return roster, out, nil
}

// AggregateEssayByEvaluatee builds one essay list per evaluatee for an
// instructor-category essay item.
func (a *Aggregator) AggregateEssayByEvaluatee(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]EvaluateeEssay, error) {
	const op = "aggregate.AggregateEssayByEvaluatee"
	if item.Classification != models.ClassText {
		return nil, evalerrors.Integrity(op, "item %s is %q, not an essay item", item.ID.Hex(), item.Classification)
	}
	s := a.scope(evalID, groupIDs)
	roster := a.assign.ResolveEvaluatees(s.eval, groupIDs, s.all)
	parts := a.partition(evalID, a.itemAnswers(s, item.ID), roster)

	out := make([]EvaluateeEssay, 0, len(roster))
	for _, e := range roster {
		out = append(out, EvaluateeEssay{Evaluatee: e, Answers: a.essay(parts[e.UserID])})
	}
	return out, nil
}

// CountCompletedResponses counts submitted responses for the evaluation, or
// for one group when groupID is set.
func (a *Aggregator) CountCompletedResponses(evalID primitive.ObjectID, groupID *primitive.ObjectID) int {
	return len(a.scope(evalID, single(groupID)).completed)
}

// CountInProgressResponses counts started but unsubmitted responses.
func (a *Aggregator) CountInProgressResponses(evalID primitive.ObjectID, groupID *primitive.ObjectID) int {
	s := a.scope(evalID, single(groupID))
	return len(s.all) - len(s.completed)
}

func single(id *primitive.ObjectID) []primitive.ObjectID {
	if id == nil {
		return nil
	}
	return []primitive.ObjectID{*id}
}
