package node

import (
	"context"
	"io"
	"strings"
	"testing"

	"file-manager/internal/audit"
	apiError "file-manager/internal/errors"
	"file-manager/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// mock implementation of NodeRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Node), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]Node, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Node), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) CreateFolder(ctx context.Context, n *Node) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockRepository) CreateFile(ctx context.Context, n *Node) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockRepository) Move(ctx context.Context, id string, newParentID *string) (*Node, bool, error) {
	args := m.Called(ctx, id, newParentID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*Node), args.Bool(1), args.Error(2)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mock implementation of BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Store(src io.Reader, originalName string) (string, int64, error) {
	args := m.Called(src, originalName)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockBlobStore) Resolve(locator string) (string, error) {
	args := m.Called(locator)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Release(locator string) error {
	args := m.Called(locator)
	return args.Error(0)
}

// mock implementation of AuditRecorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ev audit.Event) {
	m.Called(ev)
}

func newTestService(repo *MockRepository, blobs *MockBlobStore, recorder *MockRecorder) Service {
	return NewService(repo, blobs, recorder, redis.NewCache())
}

func strPtr(s string) *string { return &s }

func TestCreateFolder_Conflict(t *testing.T) {
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	recorder := new(MockRecorder)
	service := newTestService(repo, blobs, recorder)

	repo.On("CreateFolder", mock.Anything, mock.Anything).Return(ErrDuplicateName)

	_, err := service.CreateFolder(context.Background(), "owner-1", "docs", nil)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "conflict", apiErr.Kind)
	recorder.AssertNotCalled(t, "Record", mock.Anything)
}

func TestCreateFolder_InvalidParent(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockBlobStore), new(MockRecorder))

	repo.On("CreateFolder", mock.Anything, mock.Anything).Return(ErrInvalidParent)

	_, err := service.CreateFolder(context.Background(), "owner-1", "docs", strPtr("missing"))

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "invalid_parent", apiErr.Kind)
}

func TestCreateFolder_RecordsAudit(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	service := newTestService(repo, new(MockBlobStore), recorder)

	repo.On("CreateFolder", mock.Anything, mock.MatchedBy(func(n *Node) bool {
		return n.Name == "Docs" && n.Kind == KindFolder && n.OwnerID == "owner-1"
	})).Return(nil)
	recorder.On("Record", mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == "folder.create" && ev.ActorID == "owner-1"
	})).Return()

	folder, err := service.CreateFolder(context.Background(), "owner-1", "Docs", nil)

	assert.NoError(t, err)
	assert.Equal(t, "Docs", folder.Name)
	recorder.AssertExpectations(t)
}

func TestMove_CycleRejected(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockBlobStore), new(MockRecorder))

	repo.On("Move", mock.Anything, "folder-a", strPtr("folder-b")).Return(nil, false, ErrInvalidMove)

	_, err := service.Move(context.Background(), "actor-1", "folder-a", strPtr("folder-b"))

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "invalid_move", apiErr.Kind)
}

func TestMove_NotFound(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockBlobStore), new(MockRecorder))

	repo.On("Move", mock.Anything, "ghost", mock.Anything).Return(nil, false, gorm.ErrRecordNotFound)

	_, err := service.Move(context.Background(), "actor-1", "ghost", nil)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestMove_Success(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	service := newTestService(repo, new(MockBlobStore), recorder)

	moved := &Node{ID: "file-1", Name: "a.txt", Kind: KindFile, OwnerID: "owner-1", ParentID: strPtr("folder-b")}
	repo.On("Move", mock.Anything, "file-1", strPtr("folder-b")).Return(moved, true, nil)
	recorder.On("Record", mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == "file.move" && ev.TargetID == "file-1"
	})).Return()

	result, err := service.Move(context.Background(), "actor-1", "file-1", strPtr("folder-b"))

	assert.NoError(t, err)
	assert.Equal(t, "folder-b", *result.ParentID)
	recorder.AssertExpectations(t)
}

func TestMove_DuplicateNameInDestination(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	service := newTestService(repo, new(MockBlobStore), recorder)

	repo.On("Move", mock.Anything, "folder-a", mock.Anything).Return(nil, false, ErrDuplicateName)

	_, err := service.Move(context.Background(), "actor-1", "folder-a", nil)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "conflict", apiErr.Kind)
	recorder.AssertNotCalled(t, "Record", mock.Anything)
}

func TestMove_SameParentSkipsAudit(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	service := newTestService(repo, new(MockBlobStore), recorder)

	moved := &Node{ID: "file-1", Name: "a.txt", Kind: KindFile, OwnerID: "owner-1", ParentID: strPtr("folder-b")}
	repo.On("Move", mock.Anything, "file-1", strPtr("folder-b")).Return(moved, false, nil)

	result, err := service.Move(context.Background(), "actor-1", "file-1", strPtr("folder-b"))

	assert.NoError(t, err)
	assert.Equal(t, "file-1", result.ID)
	recorder.AssertNotCalled(t, "Record", mock.Anything)
}

func TestDelete_FolderNotEmpty(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	blobs := new(MockBlobStore)
	service := newTestService(repo, blobs, recorder)

	folder := &Node{ID: "folder-1", Name: "Docs", Kind: KindFolder, OwnerID: "owner-1"}
	repo.On("FindByID", mock.Anything, "folder-1").Return(folder, nil)
	recorder.On("Record", mock.Anything).Return()
	repo.On("Delete", mock.Anything, "folder-1").Return(ErrNotEmpty)

	err := service.Delete(context.Background(), "actor-1", "folder-1")

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_empty", apiErr.Kind)
	blobs.AssertNotCalled(t, "Release", mock.Anything)
}

func TestDelete_FileReleasesBlob(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	blobs := new(MockBlobStore)
	service := newTestService(repo, blobs, recorder)

	file := &Node{
		ID: "file-1", Name: "a.txt", Kind: KindFile, OwnerID: "owner-1",
		URL: strPtr("/static/uploads/abc.txt"),
	}
	repo.On("FindByID", mock.Anything, "file-1").Return(file, nil)
	recorder.On("Record", mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == "file.delete" && ev.TargetID == "file-1" && ev.TargetName == "a.txt"
	})).Return()
	repo.On("Delete", mock.Anything, "file-1").Return(nil)
	blobs.On("Release", "/static/uploads/abc.txt").Return(nil)

	err := service.Delete(context.Background(), "actor-1", "file-1")

	assert.NoError(t, err)
	blobs.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestDelete_BlobFailureDoesNotFail(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	blobs := new(MockBlobStore)
	service := newTestService(repo, blobs, recorder)

	file := &Node{ID: "file-1", Name: "a.txt", Kind: KindFile, OwnerID: "owner-1", URL: strPtr("/static/uploads/x")}
	repo.On("FindByID", mock.Anything, "file-1").Return(file, nil)
	recorder.On("Record", mock.Anything).Return()
	repo.On("Delete", mock.Anything, "file-1").Return(nil)
	blobs.On("Release", "/static/uploads/x").Return(assert.AnError)

	// storage failure is logged, the metadata deletion still succeeds
	err := service.Delete(context.Background(), "actor-1", "file-1")
	assert.NoError(t, err)
}

func TestUpload_DerivesTypeAndRecords(t *testing.T) {
	repo := new(MockRepository)
	recorder := new(MockRecorder)
	blobs := new(MockBlobStore)
	service := newTestService(repo, blobs, recorder)

	blobs.On("Store", mock.Anything, "a.txt").Return("/static/uploads/u1.txt", int64(5), nil)
	repo.On("CreateFile", mock.Anything, mock.MatchedBy(func(n *Node) bool {
		return n.Kind == KindFile && *n.Type == TypeDocument && *n.URL == "/static/uploads/u1.txt" && *n.Size == int64(5)
	})).Return(nil)
	recorder.On("Record", mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == "file.upload"
	})).Return()

	n, err := service.Upload(context.Background(), "owner-1", "a.txt", "text/plain", strings.NewReader("hello"), nil)

	assert.NoError(t, err)
	assert.Equal(t, TypeDocument, *n.Type)
	recorder.AssertExpectations(t)
}

func TestUpload_MetadataFailureReleasesBlob(t *testing.T) {
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	service := newTestService(repo, blobs, new(MockRecorder))

	blobs.On("Store", mock.Anything, "a.bin").Return("/static/uploads/u2.bin", int64(3), nil)
	repo.On("CreateFile", mock.Anything, mock.Anything).Return(ErrInvalidParent)
	blobs.On("Release", "/static/uploads/u2.bin").Return(nil)

	_, err := service.Upload(context.Background(), "owner-1", "a.bin", "", strings.NewReader("abc"), strPtr("ghost"))

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_parent", apiErr.Kind)
	blobs.AssertExpectations(t)
}

func TestList_UnknownTypeFilter(t *testing.T) {
	service := newTestService(new(MockRepository), new(MockBlobStore), new(MockRecorder))

	_, err := service.List(context.Background(), "owner-1", ListOptions{TypeFilter: "archive", Page: 1, PageSize: 20})

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestList_PassesFilterThrough(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockBlobStore), new(MockRecorder))

	repo.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.OwnerID == "owner-1" && f.ParentSet && f.ParentID == nil && f.TypeFilter == TypeImage
	})).Return([]Node{{ID: "n1"}}, int64(1), nil)

	result, err := service.List(context.Background(), "owner-1", ListOptions{
		ParentSet:  true,
		TypeFilter: TypeImage,
		Page:       1,
		PageSize:   20,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Len(t, result.Data, 1)
}

func TestResolveContent_FolderHasNoContent(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockBlobStore), new(MockRecorder))

	repo.On("FindByID", mock.Anything, "folder-1").
		Return(&Node{ID: "folder-1", Kind: KindFolder}, nil)

	_, _, err := service.ResolveContent(context.Background(), "folder-1")

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestResolveContent_MissingBlob(t *testing.T) {
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	service := newTestService(repo, blobs, new(MockRecorder))

	mimeType := "image/png"
	repo.On("FindByID", mock.Anything, "file-1").
		Return(&Node{ID: "file-1", Kind: KindFile, MimeType: &mimeType, URL: strPtr("/static/uploads/gone.png")}, nil)
	blobs.On("Resolve", "/static/uploads/gone.png").Return("", assert.AnError)

	_, _, err := service.ResolveContent(context.Background(), "file-1")

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestGet_NotFound(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockBlobStore), new(MockRecorder))

	repo.On("FindByID", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Get(context.Background(), "ghost")

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}
