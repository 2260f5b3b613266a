package service

import (
	"context"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingClient mocks the embedding client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbeddingClient) ModelID() string {
	return m.Called().String(0)
}

// MockEntryStore mocks the entry persistence layer
type MockEntryStore struct {
	mock.Mock
}

func (m *MockEntryStore) Upsert(ctx context.Context, e *domain.IndexedEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEntryStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEntryStore) Search(ctx context.Context, embedding []float32, k int, filter map[string]any) ([]*repository.SearchRow, error) {
	args := m.Called(ctx, embedding, k, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.SearchRow), args.Error(1)
}

func (m *MockEntryStore) Count(ctx context.Context, filter map[string]any) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryStore) CountStale(ctx context.Context, currentModelID string) (int64, error) {
	args := m.Called(ctx, currentModelID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEntrySwapper mocks the atomic rebuild swap
type MockEntrySwapper struct {
	mock.Mock
}

func (m *MockEntrySwapper) ReplaceAllEntries(ctx context.Context, entries []*domain.IndexedEntry) error {
	return m.Called(ctx, entries).Error(0)
}

// MockRebuildSources mocks the collaborator listings for rebuild
type MockRebuildSources struct {
	mock.Mock
}

func (m *MockRebuildSources) ListActiveOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Organization), args.Error(1)
}

func (m *MockRebuildSources) ListVerifiedIssues(ctx context.Context) ([]*domain.IssueReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IssueReport), args.Error(1)
}

func (m *MockRebuildSources) ListReferenceDocs(ctx context.Context) ([]*domain.ReferenceDoc, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReferenceDoc), args.Error(1)
}

// MockCandidateSearcher mocks the index search used by matcher and retrieval
type MockCandidateSearcher struct {
	mock.Mock
}

func (m *MockCandidateSearcher) Search(ctx context.Context, embedding []float32, k int, filter map[string]any) ([]*repository.SearchRow, error) {
	args := m.Called(ctx, embedding, k, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.SearchRow), args.Error(1)
}

// MockRetriever mocks the context retrieval used by the answer orchestrator
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, question string, k int, filter map[string]any) ([]*domain.RetrievalHit, error) {
	args := m.Called(ctx, question, k, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievalHit), args.Error(1)
}

// MockCompletionClient mocks text generation
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockDocumentIndexer mocks the index writes driven by lifecycle events
type MockDocumentIndexer struct {
	mock.Mock
}

func (m *MockDocumentIndexer) IndexDocument(ctx context.Context, doc *Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentIndexer) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockPendingIssueSource mocks the scheduler's backing view
type MockPendingIssueSource struct {
	mock.Mock
}

func (m *MockPendingIssueSource) ListVerifiedUnassigned(ctx context.Context, limit int) ([]*domain.IssueReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IssueReport), args.Error(1)
}
