package domain

import "time"

// Comment length bounds, counted after trimming surrounding whitespace.
const (
	CommentMinLen = 1
	CommentMaxLen = 1000
)

// Comment belongs to a task and is removed with it.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is a Comment enriched with the author's display name.
type CommentView struct {
	Comment
	AuthorName string `json:"author_name"`
}
