package audit

import (
	"context"

	"gorm.io/gorm"
)

type EntryRepository interface {
	Insert(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, types []string, page, pageSize int) ([]Entry, int64, error)
}

type EntryRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new audit entry repository
func NewRepository(db *gorm.DB) EntryRepository {
	return &EntryRepositoryImpl{db: db}
}

func (r *EntryRepositoryImpl) Insert(ctx context.Context, entry *Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *EntryRepositoryImpl) Query(ctx context.Context, types []string, page, pageSize int) ([]Entry, int64, error) {
	var entries []Entry
	var total int64

	query := r.db.WithContext(ctx).Model(&Entry{})
	if len(types) > 0 {
		query = query.Where("type IN ?", types)
	}

	if err := query.Count(&total).Error; err != nil {
		return entries, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, err
}
