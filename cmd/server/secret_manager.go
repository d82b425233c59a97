package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/adapters/gcp"
	"github.com/kevin07696/donation-relay/internal/adapters/ports"
	"github.com/kevin07696/donation-relay/internal/adapters/secrets"
	"github.com/kevin07696/donation-relay/internal/config"
	"github.com/kevin07696/donation-relay/pkg/resilience"
)

// secretFetchAttempts bounds startup retries against the secret backend
const secretFetchAttempts = 3

// initSecretManager initializes the secret manager selected by SECRET_MANAGER.
// Supports:
//   - local (default): files under SECRETS_DIR (mounted Kubernetes/Docker secrets)
//   - aws: AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault at VAULT_ADDR using VAULT_TOKEN
//   - gcp: GCP Secret Manager in GCP_PROJECT_ID
func initSecretManager(ctx context.Context, cfg *config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, func(), error) {
	noop := func() {}

	switch cfg.Manager {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.CacheTTL = cfg.CacheTTL
		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		return sm, noop, err

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		if cfg.VaultMount != "" {
			vaultCfg.MountPath = cfg.VaultMount
		}
		vaultCfg.CacheTTL = cfg.CacheTTL
		sm, err := secrets.NewVaultAdapter(ctx, vaultCfg, logger)
		return sm, noop, err

	case "gcp":
		gcpCfg := gcp.DefaultSecretManagerConfig(cfg.GCPProjectID)
		if cfg.CacheTTL > 0 {
			gcpCfg.CacheTTL = cfg.CacheTTL
		}
		sm, err := gcp.NewGCPSecretManager(ctx, gcpCfg, logger)
		if err != nil {
			return nil, noop, err
		}
		return sm, func() {
			if err := sm.Close(); err != nil {
				logger.Warn("Failed to close GCP Secret Manager client", zap.Error(err))
			}
		}, nil

	case "local", "":
		return secrets.NewLocalSecretManager(cfg.Dir, logger), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown secret manager: %s", cfg.Manager)
	}
}

// resolveGatewaySecret fills Gateway.APISecret from the secret manager when it was
// not set directly. Failures leave it empty so requests report the missing setting.
func resolveGatewaySecret(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if cfg.Gateway.APISecret != "" || cfg.Gateway.APISecretPath == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	sm, closeFn, err := initSecretManager(ctx, &cfg.Secrets, logger)
	if err != nil {
		logger.Error("Failed to initialize secret manager",
			zap.String("secret_manager", cfg.Secrets.Manager),
			zap.Error(err),
		)
		return
	}
	defer closeFn()

	loadGatewaySecret(ctx, sm, cfg, logger)
}

// loadGatewaySecret fetches Gateway.APISecretPath, retrying transient backend failures
func loadGatewaySecret(ctx context.Context, sm ports.SecretManagerAdapter, cfg *config.Config, logger *zap.Logger) {
	var secret *ports.Secret
	err := resilience.Retry(ctx, secretFetchAttempts, resilience.StartupBackoff(), func(ctx context.Context) error {
		var fetchErr error
		secret, fetchErr = sm.GetSecret(ctx, cfg.Gateway.APISecretPath)
		return fetchErr
	})
	if err != nil {
		logger.Error("Failed to resolve gateway API secret",
			zap.String("secret_manager", cfg.Secrets.Manager),
			zap.String("path", cfg.Gateway.APISecretPath),
			zap.Error(err),
		)
		return
	}

	cfg.Gateway.APISecret = secret.Value
	logger.Info("Gateway API secret resolved",
		zap.String("secret_manager", cfg.Secrets.Manager),
		zap.String("version", secret.Version),
	)
}
