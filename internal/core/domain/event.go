package domain

// EventType discriminates the broadcast event union.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event is published once per successful mutating write, after the write is
// persisted and the cache invalidated. Exactly one of the optional fields
// is set for created/updated events; deletions carry only the ids.
type Event struct {
	Type      EventType    `json:"type"`
	Task      *TaskView    `json:"task,omitempty"`
	Comment   *CommentView `json:"comment,omitempty"`
	TaskID    string       `json:"task_id,omitempty"`
	CommentID string       `json:"comment_id,omitempty"`
}

// TaskCreated builds the event for a new task.
func TaskCreated(t *TaskView) Event {
	return Event{Type: EventCreated, Task: t, TaskID: t.ID}
}

// TaskUpdated builds the event for a mutated task.
func TaskUpdated(t *TaskView) Event {
	return Event{Type: EventUpdated, Task: t, TaskID: t.ID}
}

// TaskDeleted builds the event for a removed task.
func TaskDeleted(taskID string) Event {
	return Event{Type: EventDeleted, TaskID: taskID}
}

// CommentCreated builds the event for a new comment.
func CommentCreated(c *CommentView) Event {
	return Event{Type: EventCreated, Comment: c, TaskID: c.TaskID, CommentID: c.ID}
}

// CommentUpdated builds the event for an edited comment.
func CommentUpdated(c *CommentView) Event {
	return Event{Type: EventUpdated, Comment: c, TaskID: c.TaskID, CommentID: c.ID}
}

// CommentDeleted builds the event for a removed comment.
func CommentDeleted(taskID, commentID string) Event {
	return Event{Type: EventDeleted, TaskID: taskID, CommentID: commentID}
}
