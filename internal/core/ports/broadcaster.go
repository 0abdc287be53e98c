package ports

import "github.com/taskmgr/task-manager-api/internal/core/domain"

// Broadcaster fans domain events out to the realtime layer. Publish is
// fire-and-forget: it never blocks the write path and never reports an
// error, because broadcast failures must not roll back persisted writes.
type Broadcaster interface {
	Publish(event domain.Event)
}
