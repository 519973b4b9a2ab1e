package audit_test

import (
	"context"
	"testing"

	"file-manager/internal/audit"
	"file-manager/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of EntryRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) Query(ctx context.Context, types []string, page, pageSize int) ([]audit.Entry, int64, error) {
	args := m.Called(ctx, types, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]audit.Entry), args.Get(1).(int64), args.Error(2)
}

func TestRecord_WritesEntry(t *testing.T) {
	repo := new(MockRepository)
	pool := worker.NewWorkerPool(1, 10)
	recorder := audit.NewRecorder(repo, pool)

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Type == "file.delete" &&
			e.ActorID != nil && *e.ActorID == "user-1" &&
			e.TargetID != nil && *e.TargetID == "file-9" &&
			e.TargetType == "file" &&
			e.ID != "" && !e.CreatedAt.IsZero()
	})).Return(nil)

	recorder.Record(audit.Event{
		Type:       "file.delete",
		ActorID:    "user-1",
		TargetID:   "file-9",
		TargetType: "file",
		TargetName: "a.txt",
	})

	pool.Shutdown() // drain the queue before asserting
	repo.AssertExpectations(t)
}

func TestRecord_EmptyFieldsStoredAsNull(t *testing.T) {
	repo := new(MockRepository)
	pool := worker.NewWorkerPool(1, 10)
	recorder := audit.NewRecorder(repo, pool)

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.ActorID == nil && e.TargetName == nil && e.TargetType == "system"
	})).Return(nil)

	recorder.Record(audit.Event{Type: "system.start", TargetType: "system"})

	pool.Shutdown()
	repo.AssertExpectations(t)
}

func TestRecord_InsertFailureIsSwallowed(t *testing.T) {
	repo := new(MockRepository)
	pool := worker.NewWorkerPool(1, 10)
	recorder := audit.NewRecorder(repo, pool)

	repo.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	// must not panic or surface anything to the caller
	recorder.Record(audit.Event{Type: "file.upload", TargetType: "file"})
	pool.Shutdown()

	repo.AssertExpectations(t)
}
