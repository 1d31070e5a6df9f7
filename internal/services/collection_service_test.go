package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// MockCollectionRepository is a mock implementation of CollectionRepository
type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockCollectionRepository) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) GetByIDWithCases(ctx context.Context, id uint) (*models.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockCollectionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCollectionRepository) List(ctx context.Context, limit, offset int) ([]*models.Collection, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Collection), args.Get(1).(int64), args.Error(2)
}

func (m *MockCollectionRepository) AddCase(ctx context.Context, collectionID uint, caseID string) error {
	args := m.Called(ctx, collectionID, caseID)
	return args.Error(0)
}

func (m *MockCollectionRepository) RemoveCase(ctx context.Context, collectionID uint, caseID string) error {
	args := m.Called(ctx, collectionID, caseID)
	return args.Error(0)
}

func (m *MockCollectionRepository) HasCase(ctx context.Context, collectionID uint, caseID string) (bool, error) {
	args := m.Called(ctx, collectionID, caseID)
	return args.Bool(0), args.Error(1)
}

func newTestCollectionService(collections *MockCollectionRepository, cases *MockCaseRepository) CollectionService {
	return NewCollectionService(collections, cases, testLogger(), validator.New())
}

func TestCollectionService_AddCase(t *testing.T) {
	t.Run("adds when collection and case exist", func(t *testing.T) {
		collections := &MockCollectionRepository{}
		cases := &MockCaseRepository{}
		collections.On("GetByID", mock.Anything, uint(1)).Return(&models.Collection{ID: 1, Name: "Semana 3"}, nil)
		cases.On("ExistsByCaseID", mock.Anything, "case-aa11bb22").Return(true, nil)
		collections.On("HasCase", mock.Anything, uint(1), "case-aa11bb22").Return(false, nil)
		collections.On("AddCase", mock.Anything, uint(1), "case-aa11bb22").Return(nil)
		collections.On("GetByIDWithCases", mock.Anything, uint(1)).Return(&models.Collection{ID: 1, Name: "Semana 3"}, nil)

		svc := newTestCollectionService(collections, cases)
		collection, err := svc.AddCase(context.Background(), 1, "case-aa11bb22")
		require.NoError(t, err)
		assert.Equal(t, uint(1), collection.ID)
		collections.AssertExpectations(t)
	})

	t.Run("unknown case", func(t *testing.T) {
		collections := &MockCollectionRepository{}
		cases := &MockCaseRepository{}
		collections.On("GetByID", mock.Anything, uint(1)).Return(&models.Collection{ID: 1}, nil)
		cases.On("ExistsByCaseID", mock.Anything, "case-missing0").Return(false, nil)

		svc := newTestCollectionService(collections, cases)
		_, err := svc.AddCase(context.Background(), 1, "case-missing0")
		assert.ErrorIs(t, err, ErrCaseNotFound)
	})

	t.Run("already member", func(t *testing.T) {
		collections := &MockCollectionRepository{}
		cases := &MockCaseRepository{}
		collections.On("GetByID", mock.Anything, uint(1)).Return(&models.Collection{ID: 1}, nil)
		cases.On("ExistsByCaseID", mock.Anything, "case-aa11bb22").Return(true, nil)
		collections.On("HasCase", mock.Anything, uint(1), "case-aa11bb22").Return(true, nil)

		svc := newTestCollectionService(collections, cases)
		_, err := svc.AddCase(context.Background(), 1, "case-aa11bb22")
		assert.ErrorIs(t, err, ErrCaseAlreadyInSet)
	})

	t.Run("unknown collection", func(t *testing.T) {
		collections := &MockCollectionRepository{}
		cases := &MockCaseRepository{}
		collections.On("GetByID", mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound)

		svc := newTestCollectionService(collections, cases)
		_, err := svc.AddCase(context.Background(), 9, "case-aa11bb22")
		assert.ErrorIs(t, err, ErrCollectionNotFound)
	})
}

func TestCollectionService_RemoveCase(t *testing.T) {
	collections := &MockCollectionRepository{}
	cases := &MockCaseRepository{}
	collections.On("GetByID", mock.Anything, uint(1)).Return(&models.Collection{ID: 1}, nil)
	collections.On("RemoveCase", mock.Anything, uint(1), "case-aa11bb22").Return(gorm.ErrRecordNotFound)

	svc := newTestCollectionService(collections, cases)
	err := svc.RemoveCase(context.Background(), 1, "case-aa11bb22")
	assert.ErrorIs(t, err, ErrCaseNotInCollection)
}

func TestCollectionService_CreateValidation(t *testing.T) {
	svc := newTestCollectionService(&MockCollectionRepository{}, &MockCaseRepository{})

	_, err := svc.Create(context.Background(), CollectionRequest{Name: ""})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

var _ repositories.CollectionRepository = (*MockCollectionRepository)(nil)
