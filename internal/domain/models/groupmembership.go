// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles inside a group.
const (
	MemberRoleStudent    = "student"
	MemberRoleInstructor = "instructor"
	MemberRoleAssistant  = "assistant"
)

// Permission is an evaluation capability a membership role grants.
type Permission string

const (
	PermTakeEvaluation Permission = "take_evaluation"
	PermBeEvaluated    Permission = "be_evaluated"
	PermAssistantRole  Permission = "assistant_role"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id); role is a scalar.
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"` // "student" | "instructor" | "assistant"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Grants reports whether the membership role carries perm.
func (m GroupMembership) Grants(perm Permission) bool {
	return RolePermission(m.Role) == perm
}

// RolePermission maps a membership role to the permission it grants.
// Unknown roles grant nothing.
func RolePermission(role string) Permission {
	switch role {
	case MemberRoleStudent:
		return PermTakeEvaluation
	case MemberRoleInstructor:
		return PermBeEvaluated
	case MemberRoleAssistant:
		return PermAssistantRole
	}
	return ""
}

// ValidMemberRole reports whether role is one of the membership roles.
func ValidMemberRole(role string) bool {
	return RolePermission(role) != ""
}
