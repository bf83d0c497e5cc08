package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/store"
)

func serve(t *testing.T, repo UserStore, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareIssuesCookieAndCreatesUser(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	rec, userID := serve(t, repo, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, isValidAnonID(userID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AnonCookieName, cookies[0].Name)
	assert.Equal(t, userID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	user, err := repo.GetUser(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "anon-"+userID[len(userID)-8:], user.Username)
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	id := "anon_0123456789abcdef0123456789abcdef"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: id})
	_, got := serve(t, repo, req)
	assert.Equal(t, id, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "../../etc/passwd"})
	_, got = serve(t, repo, req)
	assert.NotEqual(t, "../../etc/passwd", got)
	assert.True(t, isValidAnonID(got))
}

type failingStore struct{ *store.MemoryStore }

func (failingStore) GetUser(context.Context, string) (*domain.User, error) {
	return nil, errors.New("db down")
}

func TestMiddlewareStoreFailure(t *testing.T) {
	t.Parallel()

	rec, userID := serve(t, failingStore{store.NewMemory()}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, userID)
}

func TestWithUser(t *testing.T) {
	t.Parallel()

	ctx := WithUser(context.Background(), "anon_0123456789abcdef0123456789abcdef")
	assert.Equal(t, "anon_0123456789abcdef0123456789abcdef", UserIDFromContext(ctx))
	assert.Equal(t, "anon-89abcdef", UsernameFromContext(ctx))
	assert.Empty(t, UserIDFromContext(context.Background()))
}
