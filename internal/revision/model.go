package revision

import "time"

// MaxContentLength is the upper bound on a single revision's content.
const MaxContentLength = 100_000

// TextRevision is one immutable snapshot of a text file's content. Revisions
// are only ever appended; the current content of a file is the newest row.
type TextRevision struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	FileID    string    `gorm:"index" json:"fileId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// IsTextLike reports whether a mime type accepts text revisions.
func IsTextLike(mimeType string) bool {
	if mimeType == "application/json" || mimeType == "text/markdown" {
		return true
	}
	return len(mimeType) >= 5 && mimeType[:5] == "text/"
}
