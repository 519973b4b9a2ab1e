package node

import (
	"context"
	defError "errors"
	"fmt"
	"io"
	"log"
	"time"

	"file-manager/internal/audit"
	"file-manager/internal/errors"
	"file-manager/redis"

	"gorm.io/gorm"
)

// BlobStore is the content gateway surface the tree store needs: persist
// uploaded bytes, resolve a locator for streaming, release bytes on delete.
type BlobStore interface {
	Store(src io.Reader, originalName string) (locator string, size int64, err error)
	Resolve(locator string) (string, error)
	Release(locator string) error
}

// AuditRecorder is the fire-and-forget audit side channel.
type AuditRecorder interface {
	Record(ev audit.Event)
}

// ListOptions carries the listing filters after request parsing.
type ListOptions struct {
	ParentID   *string
	ParentSet  bool
	NameQuery  string
	TypeFilter string
	Page       int
	PageSize   int
}

type PaginatedNodes struct {
	Data     []Node `json:"data"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type Service interface {
	List(ctx context.Context, ownerID string, opts ListOptions) (*PaginatedNodes, error)
	Get(ctx context.Context, id string) (*Node, error)
	CreateFolder(ctx context.Context, ownerID, name string, parentID *string) (*Node, error)
	Upload(ctx context.Context, ownerID, filename, mimeType string, src io.Reader, parentID *string) (*Node, error)
	Move(ctx context.Context, actorID, id string, newParentID *string) (*Node, error)
	Delete(ctx context.Context, actorID, id string) error
	ResolveContent(ctx context.Context, id string) (path string, mimeType string, err error)
}

type DefaultService struct {
	repository NodeRepository
	blobs      BlobStore
	recorder   AuditRecorder
	cache      *redis.Cache
}

func NewService(repository NodeRepository, blobs BlobStore, recorder AuditRecorder, cache *redis.Cache) Service {
	return &DefaultService{
		repository: repository,
		blobs:      blobs,
		recorder:   recorder,
		cache:      cache,
	}
}

var validTypes = map[string]bool{
	TypeImage:    true,
	TypeVideo:    true,
	TypeAudio:    true,
	TypeDocument: true,
	TypeOther:    true,
}

func (s *DefaultService) List(ctx context.Context, ownerID string, opts ListOptions) (*PaginatedNodes, error) {
	if opts.TypeFilter != "" && !validTypes[opts.TypeFilter] {
		return nil, errors.BadRequest("Unknown type filter", nil)
	}

	// Listings are cached per owner behind a version counter that every tree
	// mutation bumps, so a hit can never be stale.
	versionKey := fmt.Sprintf("user:%s:files:version", ownerID)
	v := s.cache.GetVersion(ctx, versionKey)

	parentKey := "-"
	if opts.ParentSet {
		parentKey = "null"
		if opts.ParentID != nil {
			parentKey = *opts.ParentID
		}
	}
	cacheKey := fmt.Sprintf("files:u:%s:v:%d:pa:%s:q:%s:t:%s:p:%d:ps:%d",
		ownerID, v, parentKey, opts.NameQuery, opts.TypeFilter, opts.Page, opts.PageSize)

	var result PaginatedNodes
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	nodes, total, err := s.repository.List(ctx, ListFilter{
		OwnerID:    ownerID,
		ParentID:   opts.ParentID,
		ParentSet:  opts.ParentSet,
		NameQuery:  opts.NameQuery,
		TypeFilter: opts.TypeFilter,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
	})
	if err != nil {
		return nil, err
	}

	result = PaginatedNodes{Data: nodes, Total: total, Page: opts.Page, PageSize: opts.PageSize}
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

func (s *DefaultService) Get(ctx context.Context, id string) (*Node, error) {
	n, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Not found", err)
		}
		return nil, err
	}
	return n, nil
}

func (s *DefaultService) CreateFolder(ctx context.Context, ownerID, name string, parentID *string) (*Node, error) {
	folder := &Node{
		Name:     name,
		Kind:     KindFolder,
		ParentID: parentID,
		OwnerID:  ownerID,
	}

	if err := s.repository.CreateFolder(ctx, folder); err != nil {
		return nil, mapTreeError(err)
	}

	s.bumpVersion(ctx, ownerID)
	s.recorder.Record(audit.Event{
		Type:       "folder.create",
		ActorID:    ownerID,
		TargetID:   folder.ID,
		TargetType: "folder",
		TargetName: folder.Name,
	})

	return folder, nil
}

func (s *DefaultService) Upload(ctx context.Context, ownerID, filename, mimeType string, src io.Reader, parentID *string) (*Node, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	locator, size, err := s.blobs.Store(src, filename)
	if err != nil {
		return nil, errors.StorageError("Failed to store uploaded file", err)
	}

	derived := DeriveType(mimeType)
	file := &Node{
		Name:     filename,
		Kind:     KindFile,
		ParentID: parentID,
		OwnerID:  ownerID,
		MimeType: &mimeType,
		Type:     &derived,
		URL:      &locator,
		Size:     &size,
	}

	if err := s.repository.CreateFile(ctx, file); err != nil {
		// metadata write failed, don't leave the blob behind
		if releaseErr := s.blobs.Release(locator); releaseErr != nil {
			log.Printf("Failed to release blob %s after upload error: %v", locator, releaseErr)
		}
		return nil, mapTreeError(err)
	}

	s.bumpVersion(ctx, ownerID)
	s.recorder.Record(audit.Event{
		Type:       "file.upload",
		ActorID:    ownerID,
		TargetID:   file.ID,
		TargetType: "file",
		TargetName: file.Name,
		Details:    map[string]any{"mimeType": mimeType, "size": size},
	})

	return file, nil
}

func (s *DefaultService) Move(ctx context.Context, actorID, id string, newParentID *string) (*Node, error) {
	moved, changed, err := s.repository.Move(ctx, id, newParentID)
	if err != nil {
		return nil, mapTreeError(err)
	}

	// A move to the current parent changed nothing, so there is nothing to
	// invalidate or record.
	if !changed {
		return moved, nil
	}

	s.bumpVersion(ctx, moved.OwnerID)
	s.recorder.Record(audit.Event{
		Type:       moved.Kind + ".move",
		ActorID:    actorID,
		TargetID:   moved.ID,
		TargetType: moved.Kind,
		TargetName: moved.Name,
		Details:    map[string]any{"parentId": newParentID},
	})

	return moved, nil
}

func (s *DefaultService) Delete(ctx context.Context, actorID, id string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	// Recorded before the delete so the entry survives the node.
	s.recorder.Record(audit.Event{
		Type:       n.Kind + ".delete",
		ActorID:    actorID,
		TargetID:   n.ID,
		TargetType: n.Kind,
		TargetName: n.Name,
	})

	if err := s.repository.Delete(ctx, id); err != nil {
		return mapTreeError(err)
	}

	s.bumpVersion(ctx, n.OwnerID)

	// Blob cleanup is best-effort; an orphaned blob is logged, not fatal.
	if n.Kind == KindFile && n.URL != nil {
		if err := s.blobs.Release(*n.URL); err != nil {
			log.Printf("Failed to release blob %s for deleted file %s: %v", *n.URL, n.ID, err)
		}
	}

	return nil
}

func (s *DefaultService) ResolveContent(ctx context.Context, id string) (string, string, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}

	if n.Kind != KindFile || n.URL == nil || *n.URL == "" {
		return "", "", errors.BadRequest("Node has no binary content", nil)
	}

	path, err := s.blobs.Resolve(*n.URL)
	if err != nil {
		return "", "", errors.NotFound("Content not found", err)
	}

	mimeType := "application/octet-stream"
	if n.MimeType != nil && *n.MimeType != "" {
		mimeType = *n.MimeType
	}

	return path, mimeType, nil
}

func (s *DefaultService) bumpVersion(ctx context.Context, ownerID string) {
	s.cache.IncrementVersion(ctx, fmt.Sprintf("user:%s:files:version", ownerID))
}

// mapTreeError translates repository violations into API errors.
func mapTreeError(err error) error {
	switch {
	case defError.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFound("Not found", err)
	case defError.Is(err, ErrInvalidParent):
		return errors.InvalidParent("Parent does not resolve to an existing folder", err)
	case defError.Is(err, ErrInvalidMove):
		return errors.InvalidMove("A folder can't be moved into itself or its descendants", err)
	case defError.Is(err, ErrDuplicateName):
		return errors.Conflict("A folder with this name already exists here", err)
	case defError.Is(err, ErrNotEmpty):
		return errors.NotEmpty("Folder is not empty", err)
	default:
		return err
	}
}
