package node

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Domain violations surfaced by the repository. Services map these onto the
// API error taxonomy.
var (
	ErrInvalidParent = errors.New("parent does not resolve to an existing folder")
	ErrInvalidMove   = errors.New("move would make a folder its own descendant")
	ErrDuplicateName = errors.New("a sibling folder with this name already exists")
	ErrNotEmpty      = errors.New("folder has children")
)

// ListFilter describes one page of a listing query. ParentSet distinguishes
// "no parent filter at all" (global search) from "parent is explicitly null"
// (root level only).
type ListFilter struct {
	OwnerID    string
	ParentID   *string
	ParentSet  bool
	NameQuery  string
	TypeFilter string
	Page       int
	PageSize   int
}

type NodeRepository interface {
	FindByID(ctx context.Context, id string) (*Node, error)
	List(ctx context.Context, filter ListFilter) ([]Node, int64, error)
	CreateFolder(ctx context.Context, n *Node) error
	CreateFile(ctx context.Context, n *Node) error
	Move(ctx context.Context, id string, newParentID *string) (*Node, bool, error)
	Delete(ctx context.Context, id string) error
}

type NodeRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new node repository
func NewRepository(db *gorm.DB) NodeRepository {
	return &NodeRepositoryImpl{db: db}
}

func (r *NodeRepositoryImpl) FindByID(ctx context.Context, id string) (*Node, error) {
	var n Node
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NodeRepositoryImpl) List(ctx context.Context, filter ListFilter) ([]Node, int64, error) {
	var nodes []Node
	var total int64

	query := r.db.WithContext(ctx).Model(&Node{}).Where("owner_id = ?", filter.OwnerID)

	if filter.ParentSet {
		if filter.ParentID == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", *filter.ParentID)
		}
	}
	if filter.NameQuery != "" {
		query = query.Where("name ILIKE ?", "%"+filter.NameQuery+"%")
	}
	if filter.TypeFilter != "" {
		query = query.Where("type = ?", filter.TypeFilter)
	}

	if err := query.Count(&total).Error; err != nil {
		return nodes, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Order("updated_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&nodes).Error

	return nodes, total, err
}

// CreateFolder inserts a folder after validating the parent and the
// case-insensitive sibling-name uniqueness inside one transaction, so no
// state where the invariant is broken ever becomes visible.
func (r *NodeRepositoryImpl) CreateFolder(ctx context.Context, n *Node) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParentFolder(tx, n.ParentID); err != nil {
			return err
		}

		taken, err := folderNameTaken(tx, n.OwnerID, n.ParentID, n.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateName
		}

		now := time.Now().UTC()
		n.ID = uuid.NewString()
		n.Kind = KindFolder
		n.CreatedAt = now
		n.UpdatedAt = now
		return tx.Create(n).Error
	})
}

// CreateFile inserts a file node. Sibling file names are intentionally not
// required to be unique; only the parent is validated.
func (r *NodeRepositoryImpl) CreateFile(ctx context.Context, n *Node) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParentFolder(tx, n.ParentID); err != nil {
			return err
		}

		now := time.Now().UTC()
		n.ID = uuid.NewString()
		n.Kind = KindFile
		n.CreatedAt = now
		n.UpdatedAt = now
		return tx.Create(n).Error
	})
}

// Move re-parents a node, re-validating every placement invariant against the
// destination. The moved row is locked for the whole transaction so concurrent
// moves of the same node serialize, and the full ancestor chain of the target
// is walked with each ancestor row locked to rule out cycles built by
// concurrent moves. The second return reports whether anything changed.
func (r *NodeRepositoryImpl) Move(ctx context.Context, id string, newParentID *string) (*Node, bool, error) {
	var moved Node
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&moved, "id = ?", id).Error; err != nil {
			return err
		}

		// Move to the current parent is a no-op success.
		if sameParent(moved.ParentID, newParentID) {
			return nil
		}

		if newParentID != nil {
			if *newParentID == id {
				return ErrInvalidMove
			}
			if err := lockParentFolder(tx, newParentID); err != nil {
				return err
			}
			onChain, err := onAncestorChain(tx, *newParentID, id)
			if err != nil {
				return err
			}
			if onChain {
				return ErrInvalidMove
			}
		}

		// A folder must keep the sibling-name uniqueness at its destination.
		if moved.Kind == KindFolder {
			taken, err := folderNameTaken(tx, moved.OwnerID, newParentID, moved.Name, moved.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateName
			}
		}

		moved.ParentID = newParentID
		moved.UpdatedAt = time.Now().UTC()
		changed = true
		return tx.Model(&Node{}).
			Where("id = ?", id).
			Updates(map[string]any{"parent_id": newParentID, "updated_at": moved.UpdatedAt}).Error
	})
	if err != nil {
		return nil, false, err
	}

	return &moved, changed, nil
}

// Delete removes a node. Folders must be empty; the child count and the delete
// run in one transaction with the row locked, so a child created concurrently
// cannot be orphaned.
func (r *NodeRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n Node
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&n, "id = ?", id).Error; err != nil {
			return err
		}

		if n.Kind == KindFolder {
			var children int64
			if err := tx.Model(&Node{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
				return err
			}
			if children > 0 {
				return ErrNotEmpty
			}
		}

		return tx.Delete(&Node{}, "id = ?", id).Error
	})
}

// lockParentFolder validates that parentID references an existing folder and
// takes a row lock on it, serializing sibling writes under the same parent.
func lockParentFolder(tx *gorm.DB, parentID *string) error {
	if parentID == nil {
		return nil
	}

	var parent Node
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&parent, "id = ?", *parentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidParent
	}
	if err != nil {
		return err
	}
	if parent.Kind != KindFolder {
		return ErrInvalidParent
	}
	return nil
}

// folderNameTaken reports whether a sibling folder under (ownerID, parentID)
// already carries name, case-insensitively. excludeID skips the node itself
// when a move re-checks its own destination.
func folderNameTaken(tx *gorm.DB, ownerID string, parentID *string, name, excludeID string) (bool, error) {
	var count int64
	q := tx.Model(&Node{}).
		Where("owner_id = ? AND kind = ? AND LOWER(name) = LOWER(?)", ownerID, KindFolder, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// maxTreeDepth bounds ancestor walks. Real trees stay far below it; hitting
// the bound means the parent chain is corrupt.
const maxTreeDepth = 1024

var errDepthExceeded = errors.New("parent chain exceeds the maximum tree depth")

// parentLookup resolves a node id to its parent pointer. found is false when
// the id does not exist.
type parentLookup func(id string) (found bool, parentID *string, err error)

// walkAncestorChain reports whether target appears on the parent chain
// starting at startID (inclusive).
func walkAncestorChain(startID, target string, lookup parentLookup) (bool, error) {
	current := &startID
	for depth := 0; current != nil; depth++ {
		if depth >= maxTreeDepth {
			return false, errDepthExceeded
		}
		if *current == target {
			return true, nil
		}

		found, parent, err := lookup(*current)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		current = parent
	}
	return false, nil
}

// onAncestorChain walks the chain through the database. Each ancestor row is
// locked so concurrent moves touching the same chain serialize instead of
// both passing the cycle check.
func onAncestorChain(tx *gorm.DB, startID, target string) (bool, error) {
	return walkAncestorChain(startID, target, func(id string) (bool, *string, error) {
		var n Node
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "parent_id").
			First(&n, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, nil
		}
		if err != nil {
			return false, nil, err
		}
		return true, n.ParentID, nil
	})
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
