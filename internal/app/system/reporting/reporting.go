// Package reporting assembles the full aggregated report of an evaluation.
//
// Template items are walked in display order. Block children are nested
// under their parent instead of appearing at the top level. Items are split
// into the course and instructor categories, each keeping the relative
// order of its items. Instructor items fan out to one block per evaluatee on
// the assignment roster, including evaluatees nobody answered about.
package reporting

import (
	"sort"
	"time"

	"github.com/dalemusser/evalhub/internal/app/system/aggregate"
	"github.com/dalemusser/evalhub/internal/app/system/assignment"
	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/dalemusser/evalhub/internal/app/system/evalstate"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Source provides the evaluation and its template.
type Source interface {
	Evaluation(id primitive.ObjectID) (models.Evaluation, bool)
	TemplateItems(templateID primitive.ObjectID) []models.TemplateItem
}

// Aggregator is the slice of aggregate.Aggregator the assembler uses.
type Aggregator interface {
	AggregateScaledItem(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) (aggregate.ScaledResult, error)
	AggregateBlock(parent models.TemplateItem, children []models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]aggregate.ScaledResult, error)
	AggregateEssayItem(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]aggregate.EssayAnswer, error)
	AggregateScaledByEvaluatee(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]aggregate.EvaluateeScaled, error)
	AggregateBlockByEvaluatee(parent models.TemplateItem, children []models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]assignment.Evaluatee, [][]aggregate.ScaledResult, error)
	AggregateEssayByEvaluatee(item models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]aggregate.EvaluateeEssay, error)
	Evaluatees(evalID primitive.ObjectID, groupIDs []primitive.ObjectID) []assignment.Evaluatee
	CountCompletedResponses(evalID primitive.ObjectID, groupID *primitive.ObjectID) int
	CountInProgressResponses(evalID primitive.ObjectID, groupID *primitive.ObjectID) int
}

// Enrollment counts enrolled students.
type Enrollment interface {
	CountEnrollment(evalID primitive.ObjectID, groupID *primitive.ObjectID) int
}

// Category names.
const (
	CategoryCourse     = models.CategoryCourse
	CategoryInstructor = models.CategoryInstructor
)

// Report is the assembled result of one evaluation.
type Report struct {
	BuildID      string                 `json:"build_id"`
	EvaluationID primitive.ObjectID     `json:"evaluation_id"`
	Title        string                 `json:"title"`
	State        string                 `json:"state"`
	GeneratedAt  time.Time              `json:"generated_at"`
	GroupIDs     []primitive.ObjectID   `json:"group_ids,omitempty"`
	Completed    int                    `json:"completed"`
	InProgress   int                    `json:"in_progress"`
	Enrollment   int                    `json:"enrollment"`
	Evaluatees   []assignment.Evaluatee `json:"evaluatees"`
	Categories   []Category             `json:"categories"`
	Skipped      []SkippedItem          `json:"skipped,omitempty"`
}

// Category is an ordered list of item reports.
type Category struct {
	Name  string       `json:"name"`
	Items []ItemReport `json:"items"`
}

// ItemReport is the aggregation of one top-level template item. Which
// fields are set depends on Classification; instructor items carry their
// results in PerEvaluatee instead.
type ItemReport struct {
	ItemID         primitive.ObjectID      `json:"item_id"`
	Text           string                  `json:"text"`
	Classification string                  `json:"classification"`
	DisplayOrder   int                     `json:"display_order"`
	Scaled         *aggregate.ScaledResult `json:"scaled,omitempty"`
	Children       []ChildReport           `json:"children,omitempty"`
	Essay          []aggregate.EssayAnswer `json:"essay,omitempty"`
	PerEvaluatee   []EvaluateeBlock        `json:"per_evaluatee,omitempty"`
}

// ChildReport is one block child with its histogram.
type ChildReport struct {
	ItemID primitive.ObjectID     `json:"item_id"`
	Text   string                 `json:"text"`
	Result aggregate.ScaledResult `json:"result"`
}

// EvaluateeBlock is an instructor item aggregated for one evaluatee.
type EvaluateeBlock struct {
	Evaluatee assignment.Evaluatee    `json:"evaluatee"`
	Scaled    *aggregate.ScaledResult `json:"scaled,omitempty"`
	Children  []ChildReport           `json:"children,omitempty"`
	Essay     []aggregate.EssayAnswer `json:"essay,omitempty"`
}

// SkippedItem records an item left out of the report.
type SkippedItem struct {
	ItemID primitive.ObjectID `json:"item_id"`
	Reason string             `json:"reason"`
}

// Assembler builds reports. Now and NewID default to the wall clock and
// random UUIDs.
type Assembler struct {
	Src        Source
	Agg        Aggregator
	Enrollment Enrollment
	Log        *zap.Logger
	Now        func() time.Time
	NewID      func() string
}

// NewAssembler constructs an Assembler.
func NewAssembler(src Source, agg Aggregator, enrollment Enrollment, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		Src:        src,
		Agg:        agg,
		Enrollment: enrollment,
		Log:        logger,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// BuildReport assembles the report of evalID over groupIDs (nil = every
// assigned group). Repeated group ids count once. Data-integrity errors
// abort the build; items with an unknown classification are logged and
// skipped.
func (a *Assembler) BuildReport(evalID primitive.ObjectID, groupIDs []primitive.ObjectID) (Report, error) {
	const op = "reporting.BuildReport"
	groupIDs = uniqueIDs(groupIDs)
	ev, ok := a.Src.Evaluation(evalID)
	if !ok {
		return Report{}, evalerrors.NotFound(op, nil, "evaluation %s", evalID.Hex())
	}

	now := a.now()
	state, _ := evalstate.Resolve(ev, now)
	rep := Report{
		BuildID:      a.newID(),
		EvaluationID: ev.ID,
		Title:        ev.Title,
		State:        state.String(),
		GeneratedAt:  now,
		GroupIDs:     groupIDs,
		Evaluatees:   a.Agg.Evaluatees(evalID, groupIDs),
	}
	a.count(&rep, evalID, groupIDs)

	top, children, orphans := layout(a.Src.TemplateItems(ev.TemplateID))
	for _, o := range orphans {
		rep.Skipped = append(rep.Skipped, a.skip(ev, o, "block child without a parent"))
	}

	course := Category{Name: CategoryCourse, Items: []ItemReport{}}
	instructor := Category{Name: CategoryInstructor, Items: []ItemReport{}}
	for _, item := range top {
		var (
			ir  ItemReport
			ok  bool
			err error
		)
		if item.Category == models.CategoryInstructor {
			ir, ok, err = a.instructorItem(item, children[item.ID], evalID, groupIDs)
		} else {
			ir, ok, err = a.courseItem(item, children[item.ID], evalID, groupIDs)
		}
		if err != nil {
			return Report{}, err
		}
		if !ok {
			rep.Skipped = append(rep.Skipped, a.skip(ev, item, "unsupported classification"))
			continue
		}
		if item.Category == models.CategoryInstructor {
			instructor.Items = append(instructor.Items, ir)
		} else {
			course.Items = append(course.Items, ir)
		}
	}
	rep.Categories = []Category{course, instructor}
	return rep, nil
}

// count fills the response and enrollment totals, summed per group when
// the report is scoped.
func (a *Assembler) count(rep *Report, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) {
	if groupIDs == nil {
		rep.Completed = a.Agg.CountCompletedResponses(evalID, nil)
		rep.InProgress = a.Agg.CountInProgressResponses(evalID, nil)
		rep.Enrollment = a.Enrollment.CountEnrollment(evalID, nil)
		return
	}
	for i := range groupIDs {
		gid := &groupIDs[i]
		rep.Completed += a.Agg.CountCompletedResponses(evalID, gid)
		rep.InProgress += a.Agg.CountInProgressResponses(evalID, gid)
		rep.Enrollment += a.Enrollment.CountEnrollment(evalID, gid)
	}
}

// uniqueIDs drops repeated ids keeping first-seen order. nil stays nil.
func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Assembler) newID() string {
	if a.NewID == nil {
		return uuid.NewString()
	}
	return a.NewID()
}

func (a *Assembler) skip(ev models.Evaluation, item models.TemplateItem, reason string) SkippedItem {
	a.Log.Warn("report item skipped",
		zap.String("evaluation_id", ev.ID.Hex()),
		zap.String("item_id", item.ID.Hex()),
		zap.String("classification", item.Classification),
		zap.String("reason", reason))
	return SkippedItem{ItemID: item.ID, Reason: reason}
}

// layout orders items by display order and separates block children, keyed
// by parent ID. Children whose parent is not a block parent on the template
// are returned as orphans.
func layout(items []models.TemplateItem) (top []models.TemplateItem, children map[primitive.ObjectID][]models.TemplateItem, orphans []models.TemplateItem) {
	ordered := append([]models.TemplateItem(nil), items...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].DisplayOrder < ordered[j].DisplayOrder })

	parents := make(map[primitive.ObjectID]bool)
	for _, it := range ordered {
		if it.Classification == models.ClassBlockParent {
			parents[it.ID] = true
		}
	}

	children = make(map[primitive.ObjectID][]models.TemplateItem)
	for _, it := range ordered {
		if !it.IsBlockChild() {
			top = append(top, it)
			continue
		}
		if it.BlockParentID == nil || !parents[*it.BlockParentID] {
			orphans = append(orphans, it)
			continue
		}
		children[*it.BlockParentID] = append(children[*it.BlockParentID], it)
	}
	return top, children, orphans
}

func newItemReport(item models.TemplateItem) ItemReport {
	return ItemReport{
		ItemID:         item.ID,
		Text:           item.Text,
		Classification: item.Classification,
		DisplayOrder:   item.DisplayOrder,
	}
}

func childReports(children []models.TemplateItem, results []aggregate.ScaledResult) []ChildReport {
	text := make(map[primitive.ObjectID]string, len(children))
	for _, c := range children {
		text[c.ID] = c.Text
	}
	out := make([]ChildReport, 0, len(results))
	for _, r := range results {
		out = append(out, ChildReport{ItemID: r.ItemID, Text: text[r.ItemID], Result: r})
	}
	return out
}

func (a *Assembler) courseItem(item models.TemplateItem, children []models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) (ItemReport, bool, error) {
	ir := newItemReport(item)
	switch item.Classification {
	case models.ClassHeader:
	case models.ClassScaled:
		res, err := a.Agg.AggregateScaledItem(item, evalID, groupIDs)
		if err != nil {
			return ItemReport{}, true, err
		}
		ir.Scaled = &res
	case models.ClassBlockParent:
		res, err := a.Agg.AggregateBlock(item, children, evalID, groupIDs)
		if err != nil {
			return ItemReport{}, true, err
		}
		ir.Children = childReports(children, res)
	case models.ClassText:
		res, err := a.Agg.AggregateEssayItem(item, evalID, groupIDs)
		if err != nil {
			return ItemReport{}, true, err
		}
		ir.Essay = res
	default:
		return ItemReport{}, false, nil
	}
	return ir, true, nil
}

func (a *Assembler) instructorItem(item models.TemplateItem, children []models.TemplateItem, evalID primitive.ObjectID, groupIDs []primitive.ObjectID) (ItemReport, bool, error) {
	ir := newItemReport(item)
	switch item.Classification {
	case models.ClassHeader:
	case models.ClassScaled:
		per, err := a.Agg.AggregateScaledByEvaluatee(item, evalID, groupIDs)
		if err != nil {
			return ItemReport{}, true, err
		}
		ir.PerEvaluatee = make([]EvaluateeBlock, 0, len(per))
		for _, p := range per {
			res := p.Result
			ir.PerEvaluatee = append(ir.PerEvaluatee, EvaluateeBlock{Evaluatee: p.Evaluatee, Scaled: &res})
		}
	case models.ClassBlockParent:
		roster, per, err := a.Agg.AggregateBlockByEvaluatee(item, children, evalID, groupIDs)
		if err != nil {
			return ItemReport{}, true, err
		}
		ir.PerEvaluatee = make([]EvaluateeBlock, 0, len(roster))
		for i, e := range roster {
			ir.PerEvaluatee = append(ir.PerEvaluatee, EvaluateeBlock{Evaluatee: e, Children: childReports(children, per[i])})
		}
	case models.ClassText:
		per, err := a.Agg.AggregateEssayByEvaluatee(item, evalID, groupIDs)
		if err != nil {
			return ItemReport{}, true, err
		}
		ir.PerEvaluatee = make([]EvaluateeBlock, 0, len(per))
		for _, p := range per {
			ir.PerEvaluatee = append(ir.PerEvaluatee, EvaluateeBlock{Evaluatee: p.Evaluatee, Essay: p.Answers})
		}
	default:
		return ItemReport{}, false, nil
	}
	return ir, true, nil
}
