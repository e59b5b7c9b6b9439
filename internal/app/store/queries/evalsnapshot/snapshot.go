// Package evalsnapshot gathers everything the evaluation core needs for one
// evaluation into an immutable in-memory Snapshot.
//
// The core packages (assignment, aggregate, resultpolicy, reporting) are
// pure computations over already-fetched entities; Snapshot implements all
// of their accessor interfaces. Load fills a Snapshot from MongoDB; tests
// build one directly with the Add* methods.
//
// A Snapshot must not be mutated once handed to the core. Reads are safe
// from any number of goroutines.
package evalsnapshot

import (
	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Snapshot struct {
	evaluations   map[primitive.ObjectID]models.Evaluation
	assignGroups  map[primitive.ObjectID][]models.AssignGroup
	assignNodes   map[primitive.ObjectID][]models.AssignHierarchyNode
	nodes         map[primitive.ObjectID]models.HierarchyNode
	children      map[primitive.ObjectID][]primitive.ObjectID
	members       map[primitive.ObjectID][]models.GroupMembership
	responses     map[primitive.ObjectID][]models.Response
	answers       map[primitive.ObjectID][]models.Answer
	scales        map[primitive.ObjectID]models.Scale
	templateItems map[primitive.ObjectID][]models.TemplateItem
}

// New returns an empty Snapshot.
func New() *Snapshot {
	return &Snapshot{
		evaluations:   make(map[primitive.ObjectID]models.Evaluation),
		assignGroups:  make(map[primitive.ObjectID][]models.AssignGroup),
		assignNodes:   make(map[primitive.ObjectID][]models.AssignHierarchyNode),
		nodes:         make(map[primitive.ObjectID]models.HierarchyNode),
		children:      make(map[primitive.ObjectID][]primitive.ObjectID),
		members:       make(map[primitive.ObjectID][]models.GroupMembership),
		responses:     make(map[primitive.ObjectID][]models.Response),
		answers:       make(map[primitive.ObjectID][]models.Answer),
		scales:        make(map[primitive.ObjectID]models.Scale),
		templateItems: make(map[primitive.ObjectID][]models.TemplateItem),
	}
}

/* -------------------------------------------------------------------------- */
/* Builders                                                                   */
/* -------------------------------------------------------------------------- */

func (s *Snapshot) AddEvaluation(ev models.Evaluation) *Snapshot {
	s.evaluations[ev.ID] = ev
	return s
}

func (s *Snapshot) AddAssignGroups(rows ...models.AssignGroup) *Snapshot {
	for _, r := range rows {
		s.assignGroups[r.EvaluationID] = append(s.assignGroups[r.EvaluationID], r)
	}
	return s
}

func (s *Snapshot) AddAssignNodes(rows ...models.AssignHierarchyNode) *Snapshot {
	for _, r := range rows {
		s.assignNodes[r.EvaluationID] = append(s.assignNodes[r.EvaluationID], r)
	}
	return s
}

// AddNodes registers hierarchy nodes. Parents need not be added first.
func (s *Snapshot) AddNodes(nodes ...models.HierarchyNode) *Snapshot {
	for _, n := range nodes {
		s.nodes[n.ID] = n
		if n.ParentID != nil {
			s.children[*n.ParentID] = append(s.children[*n.ParentID], n.ID)
		}
	}
	return s
}

func (s *Snapshot) AddMembers(ms ...models.GroupMembership) *Snapshot {
	for _, m := range ms {
		s.members[m.GroupID] = append(s.members[m.GroupID], m)
	}
	return s
}

func (s *Snapshot) AddResponses(rs ...models.Response) *Snapshot {
	for _, r := range rs {
		s.responses[r.EvaluationID] = append(s.responses[r.EvaluationID], r)
	}
	return s
}

func (s *Snapshot) AddAnswers(as ...models.Answer) *Snapshot {
	for _, a := range as {
		s.answers[a.ResponseID] = append(s.answers[a.ResponseID], a)
	}
	return s
}

func (s *Snapshot) AddScales(scs ...models.Scale) *Snapshot {
	for _, sc := range scs {
		s.scales[sc.ID] = sc
	}
	return s
}

func (s *Snapshot) AddTemplateItems(items ...models.TemplateItem) *Snapshot {
	for _, it := range items {
		s.templateItems[it.TemplateID] = append(s.templateItems[it.TemplateID], it)
	}
	return s
}

/* -------------------------------------------------------------------------- */
/* Accessors                                                                  */
/* -------------------------------------------------------------------------- */

func (s *Snapshot) Evaluation(id primitive.ObjectID) (models.Evaluation, bool) {
	ev, ok := s.evaluations[id]
	return ev, ok
}

func (s *Snapshot) AssignGroups(evalID primitive.ObjectID) []models.AssignGroup {
	return s.assignGroups[evalID]
}

func (s *Snapshot) AssignNodes(evalID primitive.ObjectID) []models.AssignHierarchyNode {
	return s.assignNodes[evalID]
}

// GroupsUnderNode walks the node and its descendants breadth-first and
// returns their groups in visit order. Cycles in the tree are tolerated.
func (s *Snapshot) GroupsUnderNode(nodeID primitive.ObjectID) []primitive.ObjectID {
	var out []primitive.ObjectID
	visited := map[primitive.ObjectID]bool{}
	queue := []primitive.ObjectID{nodeID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		if n, ok := s.nodes[id]; ok {
			out = append(out, n.GroupIDs...)
		}
		queue = append(queue, s.children[id]...)
	}
	return out
}

func (s *Snapshot) Members(groupID primitive.ObjectID) []models.GroupMembership {
	return s.members[groupID]
}

func (s *Snapshot) Responses(evalID primitive.ObjectID) []models.Response {
	return s.responses[evalID]
}

func (s *Snapshot) Answers(responseID primitive.ObjectID) []models.Answer {
	return s.answers[responseID]
}

func (s *Snapshot) Scale(id primitive.ObjectID) (models.Scale, bool) {
	sc, ok := s.scales[id]
	return sc, ok
}

func (s *Snapshot) TemplateItems(templateID primitive.ObjectID) []models.TemplateItem {
	return s.templateItems[templateID]
}
