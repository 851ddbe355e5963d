package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type userRepoStub struct {
	users  map[string]*models.User
	nextID int
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[string]*models.User{}}
}

func (s *userRepoStub) seed(user *models.User) {
	copied := *user
	s.users[user.ID] = &copied
}

func (s *userRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error {
	if user.ID == "" {
		s.nextID++
		user.ID = fmt.Sprintf("user-%d", s.nextID)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *userRepoStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.User, error) {
	user, ok := s.users[id]
	if !ok || (user.IsDeleted && !includeDeleted) {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	user, ok := s.users[id]
	if !ok {
		return 0, false, sql.ErrNoRows
	}
	return user.Version, user.IsDeleted, nil
}

func (s *userRepoStub) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	for _, user := range s.users {
		if user.IsDeleted || user.ID == excludeID {
			continue
		}
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *userRepoStub) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateUserParams) (*models.User, error) {
	user, ok := s.users[id]
	if !ok || user.Version != expectedVersion {
		return nil, sql.ErrNoRows
	}
	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.FullName != nil {
		user.FullName = *params.FullName
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.Active != nil {
		user.Active = *params.Active
	}
	if params.IsDeleted != nil {
		user.IsDeleted = *params.IsDeleted
	}
	user.UpdatedAt = time.Now().UTC()
	user.Version++
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if user.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		out = append(out, *user)
	}
	return out, len(out), nil
}

func newUserServiceFixture(t *testing.T) (*UserService, *userRepoStub) {
	t.Helper()
	repo := newUserRepoStub()
	svc := NewUserService(repo, nil, nil, zap.NewNop())
	return svc, repo
}

func TestUserServiceCreateNormalisesEmail(t *testing.T) {
	svc, _ := newUserServiceFixture(t)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "  Dev.One@Example.COM ",
		FullName: "Dev One",
		Role:     models.RoleDeveloper,
	})
	require.NoError(t, err)
	assert.Equal(t, "dev.one@example.com", user.Email)
	assert.True(t, user.Active)
	assert.Equal(t, int64(1), user.Version)
}

func TestUserServiceCreateRejectsDuplicateEmail(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	repo.seed(&models.User{
		Versioned: models.Versioned{ID: "user-1", Version: 1},
		Email:     "dev.one@example.com",
		FullName:  "Dev One",
		Role:      models.RoleDeveloper,
		Active:    true,
	})

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "DEV.ONE@example.com",
		FullName: "Imposter",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already used")
}

func TestUserServiceCreateValidatesPayload(t *testing.T) {
	svc, _ := newUserServiceFixture(t)

	_, err := svc.Create(context.Background(), CreateUserRequest{Email: "not-an-email", FullName: "Dev"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(context.Background(), CreateUserRequest{Email: "dev@example.com", FullName: "Dev", Role: "principal"})
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceCreateHonoursExplicitInactive(t *testing.T) {
	svc, _ := newUserServiceFixture(t)

	inactive := false
	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dormant@example.com",
		FullName: "Dormant",
		Active:   &inactive,
	})
	require.NoError(t, err)
	assert.False(t, user.Active)
}

func TestUserServiceUpdateChecksEmailUniqueness(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	repo.seed(&models.User{
		Versioned: models.Versioned{ID: "user-1", Version: 1},
		Email:     "dev.one@example.com",
		FullName:  "Dev One",
		Role:      models.RoleDeveloper,
		Active:    true,
	})
	repo.seed(&models.User{
		Versioned: models.Versioned{ID: "user-2", Version: 1},
		Email:     "dev.two@example.com",
		FullName:  "Dev Two",
		Role:      models.RoleDeveloper,
		Active:    true,
	})

	taken := "dev.two@example.com"
	_, err := svc.Update(context.Background(), "user-1", 1, models.UserPatch{Email: &taken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already used")

	// Re-submitting the own address is not a collision.
	own := "DEV.ONE@example.com"
	updated, err := svc.Update(context.Background(), "user-1", 1, models.UserPatch{Email: &own})
	require.NoError(t, err)
	assert.Equal(t, "dev.one@example.com", updated.Email)
	assert.Equal(t, int64(2), updated.Version)
}

func TestUserServiceUpdateStaleVersionConflicts(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	repo.seed(&models.User{
		Versioned: models.Versioned{ID: "user-1", Version: 3},
		Email:     "dev.one@example.com",
		FullName:  "Dev One",
		Role:      models.RoleDeveloper,
		Active:    true,
	})

	role := models.RoleManager
	_, err := svc.Update(context.Background(), "user-1", 1, models.UserPatch{Role: &role})
	require.Error(t, err)
	var conflict *appErrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "user-1", conflict.EntityID)
	assert.Equal(t, int64(3), conflict.ActualVersion)
}

func TestUserServiceUpdateRejectsUnknownRole(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	repo.seed(&models.User{
		Versioned: models.Versioned{ID: "user-1", Version: 1},
		Email:     "dev.one@example.com",
		FullName:  "Dev One",
		Role:      models.RoleDeveloper,
		Active:    true,
	})

	bogus := models.UserRole("janitor")
	_, err := svc.Update(context.Background(), "user-1", 1, models.UserPatch{Role: &bogus})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestUserServiceSoftDeleteHidesUser(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	repo.seed(&models.User{
		Versioned: models.Versioned{ID: "user-1", Version: 1},
		Email:     "dev.one@example.com",
		FullName:  "Dev One",
		Role:      models.RoleDeveloper,
		Active:    true,
	})

	require.NoError(t, svc.SoftDelete(context.Background(), "user-1", 1))

	_, err := svc.Get(context.Background(), "user-1", false)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	kept, err := svc.Get(context.Background(), "user-1", true)
	require.NoError(t, err)
	assert.True(t, kept.IsDeleted)
}
