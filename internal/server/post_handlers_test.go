package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/service"
	"murmur/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) UpdateContent(ctx context.Context, id uint, content string) (*models.Post, error) {
	args := m.Called(ctx, id, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) SetTags(ctx context.Context, id uint, usernames []string) (*models.Post, error) {
	args := m.Called(ctx, id, usernames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) ClearTags(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) DeleteCascade(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockedPostApp mounts the post handlers over a mocked repository.
func mockedPostApp(t *testing.T, repo *MockPostRepository) (*fiber.App, *middleware.JWTResolver) {
	t.Helper()
	resolver := middleware.NewJWTResolver(testConfig())
	s := &Server{
		config:      testConfig(),
		auth:        middleware.NewAuth(resolver),
		postService: service.NewPostService(repo, nil, nil),
	}
	app := fiber.New()
	app.Get("/posts/:id", s.GetPost)
	app.Put("/posts/:id", s.auth.Required, s.UpdatePost)
	app.Delete("/posts/:id", s.auth.Required, s.DeletePost)
	app.Delete("/posts/:id/tags", s.auth.Required, s.RemoveTags)
	return app, resolver
}

func bearer(t *testing.T, resolver *middleware.JWTResolver, p models.Principal) string {
	t.Helper()
	tok, err := resolver.Issue(p, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestGetPost_NotFound(t *testing.T) {
	repo := new(MockPostRepository)
	app, _ := mockedPostApp(t, repo)
	repo.On("GetByID", mock.Anything, uint(77)).Return(nil, models.NewNotFoundError("Post", 77))

	resp, err := app.Test(jsonRequest(http.MethodGet, "/posts/77", ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	repo.AssertExpectations(t)
}

func TestUpdatePost_NonOwnerForbidden(t *testing.T) {
	repo := new(MockPostRepository)
	app, resolver := mockedPostApp(t, repo)
	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5, OwnerID: 1, Content: "mine"}, nil)

	req := jsonRequest(http.MethodPut, "/posts/5", `{"content":"hijacked"}`)
	req.Header.Set("Authorization", bearer(t, resolver, models.Principal{ID: 2, Username: "bob", Role: models.RoleUser}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePost_AdminCannotEditOthers(t *testing.T) {
	repo := new(MockPostRepository)
	app, resolver := mockedPostApp(t, repo)
	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5, OwnerID: 1}, nil)

	req := jsonRequest(http.MethodPut, "/posts/5", `{"content":"moderated"}`)
	req.Header.Set("Authorization", bearer(t, resolver, models.Principal{ID: 9, Username: "root", Role: models.RoleAdmin}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeletePost_AdminRemovesOthersPost(t *testing.T) {
	repo := new(MockPostRepository)
	app, resolver := mockedPostApp(t, repo)
	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5, OwnerID: 1, Content: "spam"}, nil)
	repo.On("DeleteCascade", mock.Anything, uint(5)).Return(nil)

	req := jsonRequest(http.MethodDelete, "/posts/5", "")
	req.Header.Set("Authorization", bearer(t, resolver, models.Principal{ID: 9, Username: "root", Role: models.RoleAdmin}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}

func TestDeletePost_StoreFailureIsInternal(t *testing.T) {
	repo := new(MockPostRepository)
	app, resolver := mockedPostApp(t, repo)
	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5, OwnerID: 1}, nil)
	repo.On("DeleteCascade", mock.Anything, uint(5)).Return(models.NewInternalError(fmt.Errorf("disk full")))

	req := jsonRequest(http.MethodDelete, "/posts/5", "")
	req.Header.Set("Authorization", bearer(t, resolver, models.Principal{ID: 1, Username: "alice", Role: models.RoleUser}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body.Error)
	assert.Empty(t, body.Details)
}

func TestRemoveTags_OwnerClears(t *testing.T) {
	repo := new(MockPostRepository)
	app, resolver := mockedPostApp(t, repo)
	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5, OwnerID: 1, TaggedUsers: []string{"bob"}}, nil)
	repo.On("ClearTags", mock.Anything, uint(5)).Return(&models.Post{ID: 5, OwnerID: 1, TaggedUsers: []string{}}, nil)

	req := jsonRequest(http.MethodDelete, "/posts/5/tags", "")
	req.Header.Set("Authorization", bearer(t, resolver, models.Principal{ID: 1, Username: "alice", Role: models.RoleUser}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}

// --- end to end over SQLite ---

func TestPostLifecycle(t *testing.T) {
	h := newHarness(t)
	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	testutil.CreateUser(t, h.db, "carol")

	status, raw := h.do(http.MethodPost, "/api/posts", alice, `{"content":"hello world","tagged_users":["bob"]}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var post models.Post
	h.decode(raw, &post)
	assert.Equal(t, alice.ID, post.OwnerID)
	assert.Equal(t, []string{"bob"}, []string(post.TaggedUsers))
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, raw = h.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	h.decode(raw, &post)
	assert.Equal(t, "hello world", post.Content)

	// tags never merge
	status, raw = h.do(http.MethodPut, path+"/tags", alice, `{"usernames":["carol"]}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, h.errorCode(raw))

	status, _ = h.do(http.MethodDelete, path+"/tags", alice, "")
	require.Equal(t, http.StatusOK, status)
	status, raw = h.do(http.MethodPut, path+"/tags", alice, `{"usernames":["carol"," carol"]}`)
	require.Equal(t, http.StatusOK, status, string(raw))
	h.decode(raw, &post)
	assert.Equal(t, []string{"carol"}, []string(post.TaggedUsers))

	status, _ = h.do(http.MethodPut, path+"/tags", bob, `{"usernames":["carol"]}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = h.do(http.MethodPut, path, alice, `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, status)
	h.decode(raw, &post)
	assert.Equal(t, "edited", post.Content)
	assert.NotNil(t, post.UpdatedAt)

	status, _ = h.do(http.MethodPut, path, bob, `{"content":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = h.do(http.MethodGet, fmt.Sprintf("/api/users/%d/posts", alice.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var listed []models.Post
	h.decode(raw, &listed)
	require.Len(t, listed, 1)

	status, _ = h.do(http.MethodDelete, path, bob, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(http.MethodDelete, path, alice, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreatePost_Validation(t *testing.T) {
	h := newHarness(t)
	alice := testutil.CreateUser(t, h.db, "alice")

	tests := []struct {
		name string
		body string
	}{
		{"too long", fmt.Sprintf(`{"content":%q}`, strings.Repeat("é", 281))},
		{"unknown tag", `{"content":"hi","tagged_users":["ghost"]}`},
		{"self tag", `{"content":"hi","tagged_users":["alice"]}`},
		{"malformed", `{"content":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := h.do(http.MethodPost, "/api/posts", alice, tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(raw))
			assert.Equal(t, models.CodeValidation, h.errorCode(raw))
		})
	}
	assert.Zero(t, testutil.Count(t, h.db, &models.Post{}, ""))
}
