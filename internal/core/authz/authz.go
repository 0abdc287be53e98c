// Package authz is the authorization engine: a pure decision function over
// the actor, the action, and the ownership of the touched resource. It keeps
// no state and performs no I/O, so the full permission matrix is enumerable
// in tests.
package authz

import "github.com/taskmgr/task-manager-api/internal/core/domain"

// Action names a verb on a resource kind.
type Action string

const (
	ActionTaskCreate Action = "task.create"
	ActionTaskRead   Action = "task.read"
	ActionTaskUpdate Action = "task.update"
	ActionTaskDelete Action = "task.delete"

	ActionCommentCreate Action = "comment.create"
	ActionCommentRead   Action = "comment.read"
	ActionCommentUpdate Action = "comment.update"
	ActionCommentDelete Action = "comment.delete"

	ActionAttachmentCreate Action = "attachment.create"
	ActionAttachmentRead   Action = "attachment.read"
	ActionAttachmentDelete Action = "attachment.delete"

	ActionUserRead       Action = "user.read"
	ActionUserChangeRole Action = "user.change_role"
	ActionUserDelete     Action = "user.delete"

	ActionStatsRead Action = "stats.read"
)

// Actor is the authenticated initiator of a request. The zero value is the
// anonymous actor.
type Actor struct {
	ID   string
	Role domain.Role
}

// Anonymous is the actor of an unauthenticated request.
var Anonymous = Actor{}

// IsAnonymous reports whether the actor carries no identity.
func (a Actor) IsAnonymous() bool {
	return a.ID == ""
}

// Resource carries the ownership facts relevant to a decision. OwnerID is
// the task author, comment author, attachment uploader, or, for user
// administration, the target user (used for the self-action lockout).
type Resource struct {
	OwnerID string
}

// Owned is shorthand for a resource owned by the given user.
func Owned(ownerID string) Resource {
	return Resource{OwnerID: ownerID}
}

// Can decides allow/deny. First match wins; anything not explicitly allowed
// is denied.
func Can(actor Actor, action Action, res Resource) bool {
	// Public reads: the only actions open to anonymous actors.
	switch action {
	case ActionTaskRead, ActionCommentRead:
		return true
	}

	if actor.IsAnonymous() {
		return false
	}

	switch action {
	case ActionTaskCreate, ActionAttachmentCreate, ActionStatsRead:
		return actor.Role.Elevated()

	case ActionTaskUpdate, ActionTaskDelete:
		// Admins mutate only their own tasks; super_admin is unrestricted.
		switch actor.Role {
		case domain.RoleSuperAdmin:
			return true
		case domain.RoleAdmin:
			return actor.ID == res.OwnerID
		}
		return false

	case ActionCommentCreate, ActionAttachmentRead, ActionUserRead:
		return true

	case ActionCommentUpdate, ActionCommentDelete, ActionAttachmentDelete:
		return actor.Role.Elevated() || actor.ID == res.OwnerID

	case ActionUserChangeRole, ActionUserDelete:
		// Self-demotion and self-deletion are denied to prevent lockout.
		return actor.Role == domain.RoleSuperAdmin && actor.ID != res.OwnerID
	}

	return false
}
