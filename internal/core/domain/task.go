package domain

import "time"

// TaskStatus is the lifecycle state of a task. Values are stored and
// compared as the exact tokens the original data set uses; unrecognized
// values are rejected, never coerced.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "к выполнению"
	StatusInProgress TaskStatus = "в процессе"
	StatusDone       TaskStatus = "выполнена"
	StatusCancelled  TaskStatus = "отменена"
)

// Valid reports whether s is one of the recognized statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "низкий"
	PriorityMedium TaskPriority = "средний"
	PriorityHigh   TaskPriority = "высокий"
)

// Valid reports whether p is one of the recognized priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the stored entity. AuthorID and ID are immutable after creation;
// every other field mutates through the update allow-list only.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AuthorID    string       `json:"author_id"`
	ExecutorID  string       `json:"executor_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskView is a Task enriched with resolved display names, the shape served
// to clients and kept in the cache. It is deliberately a separate type: the
// stored entity never grows denormalized fields.
type TaskView struct {
	Task
	AuthorName   string `json:"author_name"`
	ExecutorName string `json:"executor_name"`
}
