package revision

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRevision is the admin view row: a revision joined with its file name
// and author email. The joins are LEFT so revisions of deleted files stay
// visible.
type AdminRevision struct {
	ID          string    `json:"id"`
	FileID      string    `json:"fileId"`
	FileName    *string   `json:"fileName"`
	AuthorID    string    `json:"authorId"`
	AuthorEmail *string   `json:"authorEmail"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RevisionRepository interface {
	Create(ctx context.Context, rev *TextRevision) error
	LatestByFileID(ctx context.Context, fileID string) (*TextRevision, error)
	Recent(ctx context.Context, limit int) ([]AdminRevision, error)
}

type RevisionRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new revision repository
func NewRepository(db *gorm.DB) RevisionRepository {
	return &RevisionRepositoryImpl{db: db}
}

func (r *RevisionRepositoryImpl) Create(ctx context.Context, rev *TextRevision) error {
	rev.ID = uuid.NewString()
	rev.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *RevisionRepositoryImpl) LatestByFileID(ctx context.Context, fileID string) (*TextRevision, error) {
	var rev TextRevision
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *RevisionRepositoryImpl) Recent(ctx context.Context, limit int) ([]AdminRevision, error) {
	var rows []AdminRevision
	err := r.db.WithContext(ctx).Raw(`
		SELECT tr.id, tr.file_id, n.name AS file_name, tr.author_id, u.email AS author_email, tr.created_at
		FROM text_revisions tr
		LEFT JOIN nodes n ON n.id = tr.file_id
		LEFT JOIN users u ON u.id = tr.author_id
		ORDER BY tr.created_at DESC
		LIMIT ?
	`, limit).Scan(&rows).Error
	return rows, err
}
