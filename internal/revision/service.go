package revision

import (
	"context"
	defError "errors"
	"unicode/utf8"

	"file-manager/internal/audit"
	"file-manager/internal/errors"
	"file-manager/internal/node"

	"gorm.io/gorm"
)

// NodeProvider is the slice of the tree store the revision log needs: resolve
// a file id to its node. Revisions reference nodes weakly, by id only.
type NodeProvider interface {
	FindByID(ctx context.Context, id string) (*node.Node, error)
}

type AuditRecorder interface {
	Record(ev audit.Event)
}

type Service interface {
	CurrentContent(ctx context.Context, fileID string) (string, error)
	Append(ctx context.Context, fileID, authorID, content string) (string, error)
	RecentRevisions(ctx context.Context) ([]AdminRevision, error)
}

type DefaultService struct {
	repository RevisionRepository
	nodes      NodeProvider
	recorder   AuditRecorder
}

func NewService(repository RevisionRepository, nodes NodeProvider, recorder AuditRecorder) Service {
	return &DefaultService{
		repository: repository,
		nodes:      nodes,
		recorder:   recorder,
	}
}

// CurrentContent returns the newest revision's content, or "" for a file that
// has none yet. It is recomputed from the log on every call, never cached.
func (s *DefaultService) CurrentContent(ctx context.Context, fileID string) (string, error) {
	if _, err := s.textFile(ctx, fileID); err != nil {
		return "", err
	}

	rev, err := s.repository.LatestByFileID(ctx, fileID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return rev.Content, nil
}

func (s *DefaultService) Append(ctx context.Context, fileID, authorID, content string) (string, error) {
	target, err := s.textFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", errors.TooLarge("Content exceeds the revision size limit", nil)
	}

	rev := &TextRevision{
		FileID:   fileID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.repository.Create(ctx, rev); err != nil {
		return "", err
	}

	s.recorder.Record(audit.Event{
		Type:       "text.save",
		ActorID:    authorID,
		TargetID:   fileID,
		TargetType: "file",
		TargetName: target.Name,
		Details:    map[string]any{"revisionId": rev.ID},
	})

	return rev.ID, nil
}

func (s *DefaultService) RecentRevisions(ctx context.Context) ([]AdminRevision, error) {
	return s.repository.Recent(ctx, 100)
}

// textFile resolves fileID and rejects folders and non-text mime types.
func (s *DefaultService) textFile(ctx context.Context, fileID string) (*node.Node, error) {
	n, err := s.nodes.FindByID(ctx, fileID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Not found", err)
		}
		return nil, err
	}

	if n.Kind != node.KindFile || n.MimeType == nil || !IsTextLike(*n.MimeType) {
		return nil, errors.NotTextLike("Not a text file", nil)
	}

	return n, nil
}
