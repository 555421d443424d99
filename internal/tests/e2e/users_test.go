//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"testing"
	"time"

	"github.com/acquisitions/apiserver/config"
	"github.com/acquisitions/apiserver/internal/db"
	"github.com/acquisitions/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	serverPort = 18080
	dbUser     = "acquisitions"
	dbPassword = "acquisitions"
	dbName     = "acquisitions"
)

var (
	baseURL  = fmt.Sprintf("http://localhost:%d", serverPort)
	dbConfig config.DatabaseConfig
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	if err := runMigrations(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = container.Terminate(context.Background())
		os.Exit(1)
	}

	cfg := config.Config{
		Env:        "test",
		ServerPort: serverPort,
		Database:   dbConfig,
		Auth: config.AuthConfig{
			JWTSecret: "e2e-secret",
			Issuer:    "acquisitions",
			TokenTTL:  time.Hour,
		},
		MQ:      config.MQConfig{Backend: config.BackendNone},
		Storage: config.StorageConfig{Backend: config.BackendNone},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = container.Terminate(context.Background())
		os.Exit(1)
	}
	go func() {
		_ = srv.Start()
	}()

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = container.Terminate(context.Background())
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, err
	}
	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return container, err
	}

	dbConfig = config.DatabaseConfig{
		Host:     host,
		Port:     mappedPort.Int(),
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
	}
	return container, nil
}

func runMigrations() error {
	migrator, err := db.NewMigrator(dbConfig)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func waitForHealth(ctx context.Context, url string) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newClient returns a client that keeps the token cookie between requests.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func call(t *testing.T, client *http.Client, method, path string, payload any) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func userID(t *testing.T, parsed map[string]any) int {
	t.Helper()
	user, ok := parsed["user"].(map[string]any)
	require.True(t, ok, "response has no user: %v", parsed)
	id, ok := user["id"].(float64)
	require.True(t, ok)
	return int(id)
}

func TestUserLifecycle(t *testing.T) {
	suffix := time.Now().UnixNano()
	admin := newClient(t)
	member := newClient(t)

	status, body := call(t, admin, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"name":     "Root Admin",
		"email":    fmt.Sprintf("admin_%d@example.com", suffix),
		"password": "testpass123!",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = call(t, member, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"name":     "Member",
		"email":    fmt.Sprintf("member_%d@example.com", suffix),
		"password": "testpass123!",
	})
	require.Equal(t, http.StatusCreated, status)
	memberID := userID(t, body)

	status, _ = call(t, member, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"name":     "Member Again",
		"email":    fmt.Sprintf("MEMBER_%d@example.com", suffix),
		"password": "testpass123!",
	})
	require.Equal(t, http.StatusConflict, status)

	status, _ = call(t, member, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body = call(t, admin, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, status)
	require.GreaterOrEqual(t, body["count"], float64(2))

	path := fmt.Sprintf("/api/users/%d", memberID)

	status, body = call(t, member, http.MethodPut, path, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Only administrators can change user roles", body["message"])

	status, body = call(t, member, http.MethodPut, path, map[string]string{"name": "Bob"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Bob", body["user"].(map[string]any)["name"])
	require.NotContains(t, body["user"], "password_hash")

	status, body = call(t, admin, http.MethodPut, path, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "admin", body["user"].(map[string]any)["role"])

	status, _ = call(t, member, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, admin, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, admin, http.MethodPost, "/api/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = call(t, admin, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Access token is required", body["message"])
}
