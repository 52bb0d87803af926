package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"digithesis/internal/access"
	"digithesis/internal/model"
	"digithesis/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

// MockThesisRepository is a mock implementation of ThesisRepository.
type MockThesisRepository struct {
	mock.Mock
}

func (m *MockThesisRepository) Create(ctx context.Context, thesis *model.Thesis) error {
	args := m.Called(ctx, thesis)
	return args.Error(0)
}

func (m *MockThesisRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Thesis), args.Error(1)
}

func (m *MockThesisRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockThesisRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ThesisStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockThesisRepository) UpdateCheckResult(ctx context.Context, id uuid.UUID, kind repository.CheckKind, result string) error {
	args := m.Called(ctx, id, kind, result)
	return args.Error(0)
}

func (m *MockThesisRepository) ListPublic(ctx context.Context, offset, limit int) ([]model.Thesis, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Thesis), args.Get(1).(int64), args.Error(2)
}

func (m *MockThesisRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Thesis, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Thesis), args.Error(1)
}

func (m *MockThesisRepository) ListByStatus(ctx context.Context, status model.ThesisStatus) ([]model.Thesis, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Thesis), args.Error(1)
}

func (m *MockThesisRepository) Search(ctx context.Context, query string, scope access.Scope, limit int) ([]model.Thesis, error) {
	args := m.Called(ctx, query, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Thesis), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) MarkRoleChanged(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, userID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) RoleChangedAfter(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	args := m.Called(ctx, userID, issuedAt)
	return args.Bool(0), args.Error(1)
}

// MockStore is a mock implementation of storage.Store. Saved content is
// drained so callers see the full stream consumed.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, location string) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

// MockAnalyzer is a mock implementation of checker.Analyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) CheckPlagiarism(ctx context.Context, thesis *model.Thesis) (string, error) {
	args := m.Called(ctx, thesis)
	return args.String(0), args.Error(1)
}

func (m *MockAnalyzer) CheckGrammar(ctx context.Context, thesis *model.Thesis) (string, error) {
	args := m.Called(ctx, thesis)
	return args.String(0), args.Error(1)
}
