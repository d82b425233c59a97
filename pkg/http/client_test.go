package http

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiservClientConfig_VerifiesTLS(t *testing.T) {
	cfg := FiservClientConfig()

	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinTLSVersion)
	assert.Equal(t, cfg.MaxIdleConns, cfg.MaxIdleConnsPerHost, "single host should get the whole idle pool")
}

func TestNewHTTPClient_AppliesConfig(t *testing.T) {
	cfg := FiservClientConfig()
	client := NewHTTPClient(cfg, 15*time.Second)

	assert.Equal(t, 15*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, cfg.MaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
	assert.Equal(t, cfg.ResponseHeaderTimeout, transport.ResponseHeaderTimeout)
	require.NotNil(t, transport.TLSClientConfig)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
}
