package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/view"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type page struct {
	Posts   []view.PostView   `json:"posts"`
	Profile *view.ProfileView `json:"profile"`
}

func setupRouter(t *testing.T, store social.Reader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(testConf(), store, NewRateLimiter(rate.Limit(1000), 1000))
}

func request(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func contents(p page) []string {
	out := []string{}
	for _, post := range p.Posts {
		out = append(out, post.Content)
	}
	return out
}

func TestPostsEndpoint(t *testing.T) {
	database, _ := setupTestDB(t)
	router := setupRouter(t, database)

	tests := []struct {
		path string
		want []string
	}{
		{"/api/posts", []string{"good night", "dogs & <cats>", "Tea time"}},
		{"/api/posts?q=TEA", []string{"Tea time"}},
		{"/api/posts?q=bob", []string{"dogs & <cats>"}},
		{"/api/posts?q=zebra", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var got page
			decode(t, request(t, router, tt.path), &got)
			assert.Equal(t, tt.want, contents(got))
			assert.Nil(t, got.Profile)
		})
	}
}

func TestPostsAreAnonymous(t *testing.T) {
	database, _ := setupTestDB(t)

	var got page
	decode(t, request(t, setupRouter(t, database), "/api/posts?q=tea"), &got)
	require.Len(t, got.Posts, 1)
	assert.Equal(t, 1, got.Posts[0].Likes)
	assert.False(t, got.Posts[0].Liked)
	assert.False(t, got.Posts[0].Mine)
}

func TestProfileEndpoint(t *testing.T) {
	database, _ := setupTestDB(t)
	router := setupRouter(t, database)

	var posts page
	decode(t, request(t, router, "/api/profiles/alice"), &posts)
	require.NotNil(t, posts.Profile)
	assert.Equal(t, "Alice", posts.Profile.DisplayName)
	assert.Equal(t, "tea person", posts.Profile.Bio)
	assert.Equal(t, []string{"good night", "Tea time"}, contents(posts))

	var likes page
	decode(t, request(t, router, "/api/profiles/bob?tab=likes"), &likes)
	assert.Equal(t, []string{"Tea time"}, contents(likes))

	w := request(t, router, "/api/profiles/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestionsEndpoint(t *testing.T) {
	database, _ := setupTestDB(t)

	var got struct {
		Profiles []view.ProfileView `json:"profiles"`
	}
	decode(t, request(t, setupRouter(t, database), "/api/suggestions"), &got)
	require.Len(t, got.Profiles, 2)
	assert.Equal(t, "alice", got.Profiles[0].Handle)
	assert.Equal(t, "bob", got.Profiles[1].Handle)
}

func TestFeedEndpoints(t *testing.T) {
	database, posts := setupTestDB(t)
	router := setupRouter(t, database)

	w := request(t, router, "/feed")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xmlContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "good night")

	assert.Equal(t, http.StatusOK, request(t, router, "/feed?handle=bob").Code)
	assert.Equal(t, http.StatusNotFound, request(t, router, "/feed?handle=nobody").Code)

	w = request(t, router, "/feed/"+itoa(posts[0].Id))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tea time")

	assert.Equal(t, http.StatusNotFound, request(t, router, "/feed/9999").Code)
	assert.Equal(t, http.StatusNotFound, request(t, router, "/feed/abc").Code)
}

type failingReader struct{}

func (failingReader) ReadAllPosts(context.Context) ([]domain.Post, error) {
	return nil, errors.New("connection refused")
}

func (failingReader) ReadAllProfiles(context.Context) ([]domain.Profile, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	router := setupRouter(t, failingReader{})

	for _, path := range []string{"/api/posts", "/api/profiles/alice", "/api/suggestions", "/feed", "/feed/1"} {
		assert.Equal(t, http.StatusServiceUnavailable, request(t, router, path).Code, path)
	}
}
