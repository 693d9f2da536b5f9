package service

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/repo/memory"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *memory.Store
	auth       *AuthService
	categories *CategoryService
	posts      *PostService
	storage    *fakeStorage
	admin      user.Identity
	alice      user.Identity
	bob        user.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	listCache := cache.New(time.Minute)
	storage := &fakeStorage{saved: map[string]upload.Image{}}

	f := &fixture{
		store:      store,
		auth:       NewAuthService(store.Users(), auth.NewManager("test-secret", 7*24*time.Hour)),
		categories: NewCategoryService(store.Categories(), listCache, nil),
		posts: NewPostService(store.Posts(), store.Categories(), PostServiceConfig{
			Storage:        storage,
			MaxUploadBytes: 1024,
			Cache:          listCache,
		}),
		storage: storage,
	}

	f.admin = f.addUser(t, "admin@blog.io", "Admin", user.RoleAdmin)
	f.alice = f.addUser(t, "alice@blog.io", "Alice", user.RoleUser)
	f.bob = f.addUser(t, "bob@blog.io", "Bob", user.RoleUser)

	return f
}

// addUser writes straight to the store; registration has its own tests.
func (f *fixture) addUser(t *testing.T, email, name string, role user.Role) user.Identity {
	t.Helper()

	now := time.Now().UTC()
	u, err := f.store.Users().Create(context.Background(), user.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	return u.Identity()
}

func (f *fixture) category(t *testing.T, name string) category.Category {
	t.Helper()

	c, err := f.categories.Create(context.Background(), f.admin, category.CreateRequest{Name: name})
	require.NoError(t, err)
	return c
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}

type fakeStorage struct {
	saved   map[string]upload.Image
	deleted []string
	saveErr error
}

func (s *fakeStorage) Save(_ context.Context, img upload.Image) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved[img.Key] = img
	return "/uploads/" + img.Key, nil
}

func (s *fakeStorage) Delete(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return nil
}

var zeroIdentity user.Identity
