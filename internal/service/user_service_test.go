package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"digithesis/internal/access"
	apperrors "digithesis/internal/errors"
	"digithesis/internal/model"
	"digithesis/internal/pagination"
)

func TestUserService_GetUser(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Username: "alice"}, nil).Once()
	missing := uuid.New()
	mockRepo.On("FindByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	service := NewUserService(mockRepo, nil, new(MockTokenStore), time.Hour)

	user, err := service.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.GetUser(context.Background(), missing)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	mockRepo.AssertExpectations(t)
}

func TestUserService_ListUsers(t *testing.T) {
	page := pagination.New("2", "5")

	t.Run("student is forbidden", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := NewUserService(mockRepo, nil, new(MockTokenStore), time.Hour)

		_, _, err := service.ListUsers(context.Background(), &access.Requester{ID: uuid.New(), Role: model.RoleStudent}, page)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		service := NewUserService(new(MockUserRepository), nil, new(MockTokenStore), time.Hour)
		_, _, err := service.ListUsers(context.Background(), nil, page)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("supervisor gets a page", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("List", mock.Anything, 5, 5).Return([]model.User{{Username: "x"}}, int64(6), nil)
		service := NewUserService(mockRepo, nil, new(MockTokenStore), time.Hour)

		users, total, err := service.ListUsers(context.Background(), &access.Requester{ID: uuid.New(), Role: model.RoleSupervisor}, page)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, int64(6), total)
		mockRepo.AssertExpectations(t)
	})
}

func TestUserService_ChangeRole(t *testing.T) {
	adminID := uuid.New()
	admin := &access.Requester{ID: adminID, Role: model.RoleAdmin}
	supervisor := &access.Requester{ID: uuid.New(), Role: model.RoleSupervisor}
	student := &access.Requester{ID: uuid.New(), Role: model.RoleStudent}

	newService := func(repo *MockUserRepository, tokens *MockTokenStore) UserService {
		return NewUserService(repo, nil, tokens, time.Hour)
	}

	t.Run("admin promotes a student", func(t *testing.T) {
		target := &model.User{ID: uuid.New(), Role: model.RoleStudent}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, target.ID).Return(target, nil)
		mockRepo.On("UpdateRole", mock.Anything, target.ID, model.RoleSupervisor).Return(nil)
		tokens := new(MockTokenStore)
		tokens.On("MarkRoleChanged", mock.Anything, target.ID, time.Hour).Return(nil)

		user, err := newService(mockRepo, tokens).ChangeRole(context.Background(), admin, target.ID, model.RoleSupervisor)
		require.NoError(t, err)
		assert.Equal(t, model.RoleSupervisor, user.Role)
		mockRepo.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("failing token invalidation is reported", func(t *testing.T) {
		target := &model.User{ID: uuid.New(), Role: model.RoleSupervisor}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, target.ID).Return(target, nil)
		mockRepo.On("UpdateRole", mock.Anything, target.ID, model.RoleStudent).Return(nil)
		tokens := new(MockTokenStore)
		tokens.On("MarkRoleChanged", mock.Anything, target.ID, time.Hour).Return(errors.New("redis down"))

		_, err := newService(mockRepo, tokens).ChangeRole(context.Background(), admin, target.ID, model.RoleStudent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis down")
	})

	t.Run("cannot change own role", func(t *testing.T) {
		self := &model.User{ID: adminID, Role: model.RoleAdmin}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, adminID).Return(self, nil)

		_, err := newService(mockRepo, new(MockTokenStore)).ChangeRole(context.Background(), admin, adminID, model.RoleStudent)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mockRepo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("supervisor cannot demote an admin", func(t *testing.T) {
		target := &model.User{ID: uuid.New(), Role: model.RoleAdmin}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, target.ID).Return(target, nil)

		_, err := newService(mockRepo, new(MockTokenStore)).ChangeRole(context.Background(), supervisor, target.ID, model.RoleStudent)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mockRepo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("student is forbidden before any lookup", func(t *testing.T) {
		mockRepo := new(MockUserRepository)

		_, err := newService(mockRepo, new(MockTokenStore)).ChangeRole(context.Background(), student, uuid.New(), model.RoleAdmin)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("student with unknown role is forbidden, not invalid", func(t *testing.T) {
		_, err := newService(new(MockUserRepository), new(MockTokenStore)).ChangeRole(context.Background(), student, uuid.New(), model.Role("dean"))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("anonymous with unknown role is unauthenticated", func(t *testing.T) {
		_, err := newService(new(MockUserRepository), new(MockTokenStore)).ChangeRole(context.Background(), nil, uuid.New(), model.Role("dean"))
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("unknown role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		_, err := newService(mockRepo, new(MockTokenStore)).ChangeRole(context.Background(), admin, uuid.New(), model.Role("dean"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		id := uuid.New()
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := newService(mockRepo, new(MockTokenStore)).ChangeRole(context.Background(), admin, id, model.RoleStudent)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
