// Package assignment resolves which groups and users an evaluation is bound
// to. It merges direct group assignments with groups reached by expanding
// hierarchy-node assignments, and counts enrollment over the result.
package assignment

import (
	"sort"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source provides the stored assignment rows of an evaluation.
type Source interface {
	AssignGroups(evalID primitive.ObjectID) []models.AssignGroup
	AssignNodes(evalID primitive.ObjectID) []models.AssignHierarchyNode
}

// Directory is the external group/hierarchy membership provider.
type Directory interface {
	// GroupsUnderNode returns the groups attached to the node or to any of
	// its descendants.
	GroupsUnderNode(nodeID primitive.ObjectID) []primitive.ObjectID
	// Members returns the memberships of a group.
	Members(groupID primitive.ObjectID) []models.GroupMembership
}

// AssignedGroup is one resolved (group, role) binding.
type AssignedGroup struct {
	GroupID primitive.ObjectID  `json:"group_id"`
	Role    string              `json:"role"`
	NodeID  *primitive.ObjectID `json:"node_id,omitempty"` // set when reached through a hierarchy node
}

// Evaluatee is an instructor or assistant whose items are reported
// separately.
type Evaluatee struct {
	UserID primitive.ObjectID `json:"user_id"`
	Role   string             `json:"role"` // models.MemberRoleInstructor | models.MemberRoleAssistant
}

// Resolver computes assignment sets. It holds no mutable state.
type Resolver struct {
	src Source
	dir Directory
}

// NewResolver constructs a Resolver over the given accessors.
func NewResolver(src Source, dir Directory) *Resolver {
	return &Resolver{src: src, dir: dir}
}

// ResolveAssignedGroups returns the effective groups of an evaluation.
// Direct assignments come first in stored order, followed by groups reached
// through hierarchy nodes. A group reachable more than once appears once;
// the first binding wins.
func (r *Resolver) ResolveAssignedGroups(evalID primitive.ObjectID) []AssignedGroup {
	seen := make(map[primitive.ObjectID]bool)
	var out []AssignedGroup

	for _, ag := range r.src.AssignGroups(evalID) {
		if ag.NodeID != nil || seen[ag.GroupID] {
			continue
		}
		seen[ag.GroupID] = true
		role := ag.Role
		if role == "" {
			role = models.AssignRoleEvaluator
		}
		out = append(out, AssignedGroup{GroupID: ag.GroupID, Role: role})
	}

	for _, an := range r.src.AssignNodes(evalID) {
		nodeID := an.NodeID
		for _, gid := range r.dir.GroupsUnderNode(nodeID) {
			if seen[gid] {
				continue
			}
			seen[gid] = true
			out = append(out, AssignedGroup{GroupID: gid, Role: models.AssignRoleEvaluator, NodeID: &nodeID})
		}
	}
	return out
}

// ScopeGroups intersects the requested groups with the evaluation's
// resolved set. A nil request means every resolved group. Order follows the
// resolved set.
func (r *Resolver) ScopeGroups(evalID primitive.ObjectID, groupIDs []primitive.ObjectID) []primitive.ObjectID {
	resolved := r.ResolveAssignedGroups(evalID)
	var want map[primitive.ObjectID]bool
	if groupIDs != nil {
		want = make(map[primitive.ObjectID]bool, len(groupIDs))
		for _, id := range groupIDs {
			want[id] = true
		}
	}

	out := make([]primitive.ObjectID, 0, len(resolved))
	for _, g := range resolved {
		if want == nil || want[g.GroupID] {
			out = append(out, g.GroupID)
		}
	}
	return out
}

// CountEnrollment sums, over the resolved groups (or just groupID when
// given), the users holding the take-evaluation permission. A user enrolled
// in two assigned groups is counted once per group. A group outside the
// resolved set has no enrollment.
func (r *Resolver) CountEnrollment(evalID primitive.ObjectID, groupID *primitive.ObjectID) int {
	var scope []primitive.ObjectID
	if groupID != nil {
		scope = []primitive.ObjectID{*groupID}
	}

	total := 0
	for _, gid := range r.ScopeGroups(evalID, scope) {
		for _, m := range r.dir.Members(gid) {
			if m.Grants(models.PermTakeEvaluation) {
				total++
			}
		}
	}
	return total
}

// ResolveEvaluatees returns the instructors and assistants of the scoped
// groups, de-duplicated by (user, role). With selection option all every
// permitted member is an evaluatee; with one/many only members picked in at
// least one completed response's selections are.
//
// Order: instructors before assistants, then by first group of appearance,
// then by user ID within a group.
func (r *Resolver) ResolveEvaluatees(ev models.Evaluation, groupIDs []primitive.ObjectID, responses []models.Response) []Evaluatee {
	groups := r.ScopeGroups(ev.ID, groupIDs)
	inScope := make(map[primitive.ObjectID]bool, len(groups))
	for _, gid := range groups {
		inScope[gid] = true
	}

	var out []Evaluatee
	for _, role := range []string{models.MemberRoleInstructor, models.MemberRoleAssistant} {
		perm := models.RolePermission(role)

		var chosen map[primitive.ObjectID]bool
		if ev.SelectionFor(role) != models.SelectionAll {
			chosen = selected(responses, inScope, role)
		}

		seen := make(map[primitive.ObjectID]bool)
		for _, gid := range groups {
			members := r.dir.Members(gid)
			ids := make([]primitive.ObjectID, 0, len(members))
			for _, m := range members {
				if m.Grants(perm) {
					ids = append(ids, m.UserID)
				}
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })

			for _, uid := range ids {
				if seen[uid] || (chosen != nil && !chosen[uid]) {
					continue
				}
				seen[uid] = true
				out = append(out, Evaluatee{UserID: uid, Role: role})
			}
		}
	}
	return out
}

func selected(responses []models.Response, inScope map[primitive.ObjectID]bool, role string) map[primitive.ObjectID]bool {
	out := make(map[primitive.ObjectID]bool)
	for _, resp := range responses {
		if !resp.Completed() || !inScope[resp.GroupID] {
			continue
		}
		for _, uid := range resp.Selections[role] {
			out[uid] = true
		}
	}
	return out
}
