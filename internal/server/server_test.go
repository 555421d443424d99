package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/handlers"
	"github.com/acquisitions/apiserver/internal/services"
	"github.com/acquisitions/apiserver/internal/store/memstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T, logs io.Writer) http.Handler {
	t.Helper()
	users := services.NewUserService(memstore.NewUserRepository(), services.WithHashCost(bcrypt.MinCost))
	return NewRouter(Dependencies{
		Logger: slog.New(slog.NewJSONHandler(logs, nil)),
		Users:  users,
		Tokens: auth.NewTokenManager("test-secret", "acquisitions", time.Hour),
	})
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, io.Discard)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupAliasThenFetchSelf(t *testing.T) {
	var logs bytes.Buffer
	router := newTestRouter(t, &logs)

	body := `{"name":"Alice","email":"alice@example.com","password":"s3cret!"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == handlers.TokenCookie {
			token = c
		}
	}
	require.NotNil(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/users/1", nil)
	req.AddCookie(token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)

	require.Contains(t, logs.String(), `"msg":"http_request"`)
	require.Contains(t, logs.String(), `"path":"/api/users/1"`)
}

func TestAvatarRoutesWithoutStorage(t *testing.T) {
	router := newTestRouter(t, io.Discard)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/1/avatar", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
