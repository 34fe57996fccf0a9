package domain

import "time"

// Attachment is file metadata; the content itself lives outside the service.
type Attachment struct {
	ID         string
	Name       string
	URL        string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	UploadedAt *time.Time
}

// Clone returns a deep copy, or nil for a nil attachment.
func (a *Attachment) Clone() *Attachment {
	if a == nil {
		return nil
	}
	cp := *a
	if a.UploadedAt != nil {
		at := *a.UploadedAt
		cp.UploadedAt = &at
	}
	return &cp
}
