package models

import "time"

// DroppedFile is a file dragged into the client before it is uploaded.
type DroppedFile struct {
	ID             string
	ConversationID *string
	OriginalName   string
	FilePath       string
	MimeType       string
	SizeBytes      int64
	Checksum       string
	UploadStatus   UploadStatus
	ServerFileID   *string
	DroppedAt      time.Time
	ProcessedAt    *time.Time
	ErrorMessage   *string
}

// MarkProcessed records a completed upload.
func (f *DroppedFile) MarkProcessed(at time.Time) {
	f.UploadStatus = UploadCompleted
	f.ProcessedAt = &at
}

// QuickCaptureSession is a short query/response exchange that may later be
// promoted into a full conversation.
type QuickCaptureSession struct {
	ID                      string
	Query                   string
	Response                *string
	CreatedAt               time.Time
	CompletedAt             *time.Time
	SessionDurationMS       *int64
	ConvertedToConversation *string
	ServerID                string
}

// MarkCompleted stores the response and the non-negative session duration.
func (s *QuickCaptureSession) MarkCompleted(at time.Time, response *string) {
	s.Response = response
	s.CompletedAt = &at
	d := at.Sub(s.CreatedAt).Milliseconds()
	if d < 0 {
		d = 0
	}
	s.SessionDurationMS = &d
}
