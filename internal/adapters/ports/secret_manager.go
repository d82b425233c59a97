package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., gateway API secret)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter retrieves secrets from a secret management service.
// The relay only reads: the gateway API secret is resolved once at startup.
//
// Path format depends on implementation:
//   - Local: relative file path under the secrets directory
//   - AWS: secret name or ARN, e.g. "donation-relay/fiserv/api-secret"
//   - GCP: secret id, resolved as "projects/{project}/secrets/{id}/versions/latest"
//   - Vault: KV path under the mount, e.g. "donation-relay/fiserv"
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret.
	// Returns an error if the secret does not exist, is empty, or the backend is unreachable.
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
