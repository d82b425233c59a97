package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/config"
	"github.com/kevin07696/donation-relay/pkg/middleware"
	"github.com/kevin07696/donation-relay/pkg/resilience"
	"github.com/kevin07696/donation-relay/test/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		RateLimit:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func TestNewRouter_MountsRelayPaths(t *testing.T) {
	var hits []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	rl := middleware.NewRateLimiter(100, 100)
	defer rl.Shutdown()

	router := newRouter(testConfig(), handler, rl, resilience.TestTimeoutConfig())

	for _, path := range []string{"/fiserv-payment", "/api/v1/payments/fiserv"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
	}
	assert.Equal(t, []string{"/fiserv-payment", "/api/v1/payments/fiserv"}, hits)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveGatewaySecret_FromLocalFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fiserv-api-secret"), []byte("file-secret\n"), 0o600))

	cfg := testConfig()
	cfg.Secrets = config.SecretsConfig{Manager: "local", Dir: dir}
	cfg.Gateway.APISecretPath = "fiserv-api-secret"

	resolveGatewaySecret(context.Background(), cfg, zap.NewNop())
	assert.Equal(t, "file-secret", cfg.Gateway.APISecret)
}

func TestResolveGatewaySecret_KeepsExplicitSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secrets = config.SecretsConfig{Manager: "local", Dir: t.TempDir()}
	cfg.Gateway.APISecret = "from-env"
	cfg.Gateway.APISecretPath = "fiserv-api-secret"

	resolveGatewaySecret(context.Background(), cfg, zap.NewNop())
	assert.Equal(t, "from-env", cfg.Gateway.APISecret)
}

func TestResolveGatewaySecret_MissingLeavesEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.Secrets = config.SecretsConfig{Manager: "local", Dir: t.TempDir()}
	cfg.Gateway.APISecretPath = "absent"

	resolveGatewaySecret(context.Background(), cfg, zap.NewNop())
	assert.Empty(t, cfg.Gateway.APISecret)
}

func TestLoadGatewaySecret_RetriesThenGivesUp(t *testing.T) {
	sm := mocks.NewMockSecretManager(nil)
	sm.Err = errors.New("backend unavailable")

	cfg := testConfig()
	cfg.Gateway.APISecretPath = "fiserv-api-secret"

	loadGatewaySecret(context.Background(), sm, cfg, zap.NewNop())

	assert.Empty(t, cfg.Gateway.APISecret)
	assert.Len(t, sm.Calls, secretFetchAttempts)
}

func TestLoadGatewaySecret_FromBackend(t *testing.T) {
	sm := mocks.NewMockSecretManager(map[string]string{"fiserv-api-secret": "vaulted"})

	cfg := testConfig()
	cfg.Gateway.APISecretPath = "fiserv-api-secret"

	loadGatewaySecret(context.Background(), sm, cfg, zap.NewNop())

	assert.Equal(t, "vaulted", cfg.Gateway.APISecret)
	assert.Equal(t, []string{"fiserv-api-secret"}, sm.Calls)
}

func TestInitSecretManager_Unknown(t *testing.T) {
	_, _, err := initSecretManager(context.Background(), &config.SecretsConfig{Manager: "etcd"}, zap.NewNop())
	assert.Error(t, err)
}
