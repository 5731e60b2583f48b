package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/possync/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "provision-me"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	manager := repomanager.NewInMemoryRepositoryManager()
	syncSvc := services.NewSyncService(manager, logger)
	authSvc := services.NewAuthService(testSecret, "test-jwt-secret", time.Hour)

	srv := httptest.NewServer(NewServer(":0", t.TempDir(), syncSvc, authSvc, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, terminal, secret string) (string, int) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"terminal": terminal, "secret": secret})
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode
	}
	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result["token"], resp.StatusCode
}

func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	_, status := login(t, srv, "terminal-1", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)

	_, status = login(t, srv, "", testSecret)
	assert.Equal(t, http.StatusUnauthorized, status)

	token, status := login(t, srv, "terminal-1", testSecret)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, token)
}

func TestPush_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync/products", "", map[string]any{"products": []any{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sync/products", "bogus-token", map[string]any{"products": []any{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPushAndDiff_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token, _ := login(t, srv, "terminal-1", testSecret)

	updatedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync/products", token, map[string]any{
		"products": []*models.Product{
			{LocalID: 7, Name: "espresso", Price: 2.2, Stock: 10, IsActive: true, UpdatedAt: updatedAt},
		},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pushed models.PushResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushed))
	assert.True(t, pushed.Success)
	assert.Equal(t, 1, pushed.Count)

	diffResp := doJSON(t, http.MethodGet, srv.URL+"/api/sync/diff?since=2026-08-01T00:00:00Z", token, nil)
	defer diffResp.Body.Close()
	require.Equal(t, http.StatusOK, diffResp.StatusCode)

	var diff models.DiffResponse
	require.NoError(t, json.NewDecoder(diffResp.Body).Decode(&diff))
	assert.False(t, diff.Ts.IsZero())
	require.Len(t, diff.Products, 1)
	assert.Equal(t, "espresso", diff.Products[0].Name)
	assert.Equal(t, int64(7), diff.Products[0].LocalID)
	assert.NotNil(t, diff.Categories)
	assert.NotNil(t, diff.Menus)
	assert.NotNil(t, diff.Users)
}

func TestPush_SkippedMovementReportedNotAcknowledged(t *testing.T) {
	srv := newTestServer(t)
	token, _ := login(t, srv, "terminal-1", testSecret)

	createdAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	movements := map[string]any{
		"cash-movements": []*models.CashMovement{
			{LocalID: 9, ClosureLocalID: 4, Type: "withdrawal", Amount: 50, CreatedAt: createdAt},
		},
	}

	// The closure has not been pushed yet: the movement comes back as
	// skipped, with count zero, so the terminal keeps it queued.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync/cash-movements", token, movements)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pushed models.PushResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushed))
	assert.True(t, pushed.Success)
	assert.Equal(t, 0, pushed.Count)
	assert.Equal(t, []int64{9}, pushed.SkippedLocalIDs)

	// Once the closure lands, the resubmitted movement is accepted.
	opened := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	closureResp := doJSON(t, http.MethodPost, srv.URL+"/api/sync/closures", token, map[string]any{
		"closures": []*models.CashClosure{
			{LocalID: 4, OpenedAt: opened, OpeningAmount: 100, UpdatedAt: opened},
		},
	})
	defer closureResp.Body.Close()
	require.Equal(t, http.StatusOK, closureResp.StatusCode)

	retry := doJSON(t, http.MethodPost, srv.URL+"/api/sync/cash-movements", token, movements)
	defer retry.Body.Close()
	require.Equal(t, http.StatusOK, retry.StatusCode)

	var accepted models.PushResponse
	require.NoError(t, json.NewDecoder(retry.Body).Decode(&accepted))
	assert.True(t, accepted.Success)
	assert.Equal(t, 1, accepted.Count)
	assert.Empty(t, accepted.SkippedLocalIDs)
}

func TestPush_BodyValidation(t *testing.T) {
	srv := newTestServer(t)
	token, _ := login(t, srv, "terminal-1", testSecret)

	// Wrong wrapper key.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync/products", token, map[string]any{"items": []any{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown entity type.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sync/gift-cards", token, map[string]any{"gift-cards": []any{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDiff_InvalidSince(t *testing.T) {
	srv := newTestServer(t)
	token, _ := login(t, srv, "terminal-1", testSecret)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/sync/diff?since=yesterday", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImages_ServedStatically(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	manager := repomanager.NewInMemoryRepositoryManager()
	syncSvc := services.NewSyncService(manager, logger)
	authSvc := services.NewAuthService(testSecret, "test-jwt-secret", time.Hour)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "espresso.png"), []byte("png-bytes"), 0o644))

	srv := httptest.NewServer(NewServer(":0", dir, syncSvc, authSvc, logger).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/images/espresso.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}
