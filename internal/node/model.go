package node

import (
	"strings"
	"time"
)

const (
	KindFile   = "file"
	KindFolder = "folder"
)

const (
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeDocument = "document"
	TypeOther    = "other"
)

// Node is one entry of the hierarchy, either a file or a folder. Folders never
// carry MimeType, Type, URL or Size. ParentID is nil for root-level nodes and
// is only ever changed through the move operation.
type Node struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Kind      string    `gorm:"index" json:"kind"`
	ParentID  *string   `gorm:"index:idx_nodes_owner_parent" json:"parentId"`
	OwnerID   string    `gorm:"index:idx_nodes_owner_parent" json:"ownerId"`
	MimeType  *string   `json:"mimeType,omitempty"`
	Type      *string   `gorm:"index" json:"type,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Size      *int64    `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// DeriveType maps a mime type onto the coarse file type used for filtering.
func DeriveType(mimeType string) string {
	mt := strings.ToLower(mimeType)

	switch {
	case strings.HasPrefix(mt, "image/"):
		return TypeImage
	case strings.HasPrefix(mt, "video/"):
		return TypeVideo
	case strings.HasPrefix(mt, "audio/"):
		return TypeAudio
	case strings.HasPrefix(mt, "text/"),
		strings.Contains(mt, "pdf"),
		strings.Contains(mt, "markdown"),
		strings.Contains(mt, "msword"),
		strings.Contains(mt, "spreadsheet"):
		return TypeDocument
	default:
		return TypeOther
	}
}
