package models

import "time"

// MediaBlob is a binary attachment owned by a job until its content is
// confirmed in content-addressed storage, after which the local copy is
// released.
type MediaBlob struct {
	ID          string
	JobID       string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// MediaUpload is the caller-facing attachment shape accepted by AddJob.
type MediaUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
