package audit

import "time"

// Entry is one immutable audit record. TargetID is a weak reference: it may
// point at a node that no longer exists, entries are never deleted with it.
type Entry struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Type       string         `gorm:"index" json:"type"`
	ActorID    *string        `json:"actorId"`
	TargetID   *string        `json:"targetId"`
	TargetType string         `json:"targetType"` // file | folder | user | system
	TargetName *string        `json:"targetName"`
	Details    map[string]any `gorm:"serializer:json" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}

func (Entry) TableName() string {
	return "audit_entries"
}

// Event is what callers hand to the recorder. Empty strings mean "absent" and
// are stored as NULL.
type Event struct {
	Type       string
	ActorID    string
	TargetID   string
	TargetType string
	TargetName string
	Details    map[string]any
}
