package service

import (
	"github.com/taskmgr/task-manager-api/internal/core/authz"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// guard runs the authorization check that must precede any side effect.
// Anonymous actors get ErrUnauthenticated so transports answer 401 rather
// than 403; a denied authenticated actor always gets ErrForbidden.
func guard(actor authz.Actor, action authz.Action, res authz.Resource) error {
	if authz.Can(actor, action, res) {
		return nil
	}
	if actor.IsAnonymous() {
		return domain.ErrUnauthenticated
	}
	return domain.ErrForbidden
}
