package service

import (
	"context"
	"errors"
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) ListDocuments(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockObjectStore) FetchDocument(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockReferenceWriter struct {
	mock.Mock
}

func (m *MockReferenceWriter) Upsert(ctx context.Context, doc *domain.ReferenceDoc) error {
	return m.Called(ctx, doc).Error(0)
}

type MockReferenceEvents struct {
	mock.Mock
}

func (m *MockReferenceEvents) ReferenceUpserted(ctx context.Context, doc *domain.ReferenceDoc) error {
	return m.Called(ctx, doc).Error(0)
}

func TestIngestAllUpsertsAndIndexes(t *testing.T) {
	objects := new(MockObjectStore)
	store := new(MockReferenceWriter)
	events := new(MockReferenceEvents)
	svc := NewIngestService(objects, store, events)

	objects.On("ListDocuments", mock.Anything, "docs/").Return([]string{"docs/faq.txt"}, nil)
	objects.On("FetchDocument", mock.Anything, "docs/faq.txt").
		Return([]byte("How verification works\nReports are reviewed before matching."), nil)
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(doc *domain.ReferenceDoc) bool {
		return doc.ID == "faq" && doc.Title == "How verification works" &&
			doc.Body == "Reports are reviewed before matching."
	})).Return(nil)
	events.On("ReferenceUpserted", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.IngestAll(context.Background(), "docs/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	store.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestIngestAllSkipsUnreadableFile(t *testing.T) {
	objects := new(MockObjectStore)
	store := new(MockReferenceWriter)
	events := new(MockReferenceEvents)
	svc := NewIngestService(objects, store, events)

	objects.On("ListDocuments", mock.Anything, "").Return([]string{"bad.txt", "good.txt"}, nil)
	objects.On("FetchDocument", mock.Anything, "bad.txt").Return(nil, errors.New("access denied"))
	objects.On("FetchDocument", mock.Anything, "good.txt").Return([]byte("Office hours\n9 to 5."), nil)
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	events.On("ReferenceUpserted", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.IngestAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngestAllListFailure(t *testing.T) {
	objects := new(MockObjectStore)
	svc := NewIngestService(objects, new(MockReferenceWriter), new(MockReferenceEvents))

	objects.On("ListDocuments", mock.Anything, "").Return(nil, errors.New("bucket missing"))

	_, err := svc.IngestAll(context.Background(), "")
	assert.Error(t, err)
}

func TestParseReferenceFileSingleLine(t *testing.T) {
	doc := parseReferenceFile("refs/contact-info.md", "Contact the city helpline at 1800.")

	assert.Equal(t, "contact-info", doc.ID)
	assert.Equal(t, "Contact the city helpline at 1800.", doc.Title)
	assert.Empty(t, doc.Body)
}
