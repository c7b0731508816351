package models

import "time"

// Config is an immutable, versioned collector configuration document.
// Edits never mutate a row in place; they produce a new Config.
type Config struct {
	ID                int64
	Filename          string
	ContentBytes      []byte
	ContentHash       string
	Tag               string
	IsValid           bool
	ValidationMessage string
	SourceURL         string
	UploadedAt        time.Time
	UploadedBy        string
}
