package domain

import "time"

// Attachment is the metadata of a file uploaded to a task. StoredName is
// always server-generated; the client-supplied filename is kept only as
// display metadata and never used to address bytes on disk.
type Attachment struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploaderID   string    `json:"uploader_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
