package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/adapters/ports"
)

// localSecretManager implements SecretManagerAdapter using local filesystem
// (mounted Kubernetes/Docker secrets, or plain files in development)
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a new local filesystem secret manager
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret retrieves a secret from the local filesystem.
// Files hold either the raw value or {"value": "...", "tags": {...}}.
// Surrounding whitespace is trimmed: a trailing newline would silently change every HMAC.
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	cleaned := filepath.Clean("/" + secretPath)
	filePath := filepath.Join(m.basePath, cleaned)

	m.logger.Debug("Reading secret from filesystem",
		zap.String("path", cleaned),
	)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	secret := &ports.Secret{Version: "v1"}

	var secretData struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != "" {
		secret.Value = secretData.Value
		secret.Metadata = secretData.Tags
		secret.CreatedAt = secretData.CreatedAt
	} else {
		secret.Value = strings.TrimSpace(string(data))
	}

	if secret.Value == "" {
		return nil, fmt.Errorf("secret is empty: %s", secretPath)
	}
	return secret, nil
}
