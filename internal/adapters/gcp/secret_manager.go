package gcp

import (
	"context"
	"fmt"
	"hash/crc32"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/adapters/ports"
)

// SecretManagerConfig contains configuration for GCP Secret Manager
type SecretManagerConfig struct {
	ProjectID string        // GCP Project ID (e.g., "my-project-123")
	CacheTTL  time.Duration // How long to cache secrets in memory (default: 5 minutes)
}

// DefaultSecretManagerConfig returns sensible defaults for GCP Secret Manager
func DefaultSecretManagerConfig(projectID string) *SecretManagerConfig {
	return &SecretManagerConfig{
		ProjectID: projectID,
		CacheTTL:  5 * time.Minute,
	}
}

// accessFunc matches Client.AccessSecretVersion without the call options
type accessFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)

// cachedSecret represents a secret with its cache metadata
type cachedSecret struct {
	secret    *ports.Secret
	expiresAt time.Time
}

// GCPSecretManager implements ports.SecretManagerAdapter for Google Cloud Secret Manager
type GCPSecretManager struct {
	access    accessFunc
	closer    func() error
	projectID string
	cacheTTL  time.Duration
	logger    *zap.Logger

	// In-memory cache (per instance, not shared across instances)
	cache   map[string]*cachedSecret
	cacheMu sync.RWMutex
}

// NewGCPSecretManager creates a new GCP Secret Manager adapter with in-memory caching.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS, workload identity,
// or default application credentials.
func NewGCPSecretManager(ctx context.Context, config *SecretManagerConfig, logger *zap.Logger) (*GCPSecretManager, error) {
	if config.ProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is required")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}

	access := func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
		return client.AccessSecretVersion(ctx, req)
	}

	logger.Info("GCP Secret Manager initialized",
		zap.String("project_id", config.ProjectID),
		zap.Duration("cache_ttl", config.CacheTTL),
	)

	return newGCPSecretManager(access, client.Close, config, logger), nil
}

func newGCPSecretManager(access accessFunc, closer func() error, config *SecretManagerConfig, logger *zap.Logger) *GCPSecretManager {
	return &GCPSecretManager{
		access:    access,
		closer:    closer,
		projectID: config.ProjectID,
		cacheTTL:  config.CacheTTL,
		logger:    logger,
		cache:     make(map[string]*cachedSecret),
	}
}

// Close closes the GCP Secret Manager client
func (sm *GCPSecretManager) Close() error {
	if sm.closer == nil {
		return nil
	}
	return sm.closer()
}

// GetSecret retrieves the latest version of a secret with in-memory caching.
// Path format: "fiserv-api-secret", resolved as projects/{project_id}/secrets/{path}/versions/latest
func (sm *GCPSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	sm.cacheMu.RLock()
	cached, exists := sm.cache[path]
	sm.cacheMu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		sm.logger.Debug("Secret cache hit", zap.String("path", path))
		return cached.secret, nil
	}

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", sm.projectID, path)

	result, err := sm.access(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: secretName})
	if err != nil {
		sm.logger.Error("Failed to access GCP secret",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to access GCP secret %s: %w", path, err)
	}

	payload := result.GetPayload()
	if payload == nil || len(payload.GetData()) == 0 {
		return nil, fmt.Errorf("GCP secret %s is empty", path)
	}

	// Payloads carry a CRC32C checksum; a mismatch means corruption in transit
	if payload.DataCrc32C != nil {
		crc := crc32.Checksum(payload.GetData(), crc32.MakeTable(crc32.Castagnoli))
		if int64(crc) != payload.GetDataCrc32C() {
			return nil, fmt.Errorf("GCP secret %s failed checksum verification", path)
		}
	}

	secret := &ports.Secret{
		Value:   string(payload.GetData()),
		Version: extractVersionFromName(result.GetName()),
		Metadata: map[string]string{
			"gcp_project_id": sm.projectID,
			"gcp_secret":     path,
		},
	}

	sm.cacheMu.Lock()
	sm.cache[path] = &cachedSecret{
		secret:    secret,
		expiresAt: time.Now().Add(sm.cacheTTL),
	}
	sm.cacheMu.Unlock()

	sm.logger.Info("Secret fetched from GCP and cached",
		zap.String("path", path),
		zap.String("version", secret.Version),
	)

	return secret, nil
}

// extractVersionFromName returns the trailing version of
// projects/{p}/secrets/{s}/versions/{v}
func extractVersionFromName(name string) string {
	if i := strings.LastIndex(name, "/versions/"); i >= 0 {
		return name[i+len("/versions/"):]
	}
	return "unknown"
}
