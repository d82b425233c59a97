package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/kevin07696/donation-relay/internal/adapters/ports"
)

// MockSecretManager is an in-memory SecretManagerAdapter for testing
type MockSecretManager struct {
	secrets map[string]string
	Err     error
	Calls   []string

	mu sync.Mutex
}

// NewMockSecretManager creates a mock secret manager seeded with path->value pairs
func NewMockSecretManager(secrets map[string]string) *MockSecretManager {
	if secrets == nil {
		secrets = map[string]string{}
	}
	return &MockSecretManager{secrets: secrets}
}

// GetSecret returns the seeded value or an error
func (m *MockSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, path)

	if m.Err != nil {
		return nil, m.Err
	}
	value, ok := m.secrets[path]
	if !ok {
		return nil, fmt.Errorf("secret not found: %s", path)
	}
	return &ports.Secret{Value: value, Version: "1"}, nil
}
