package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/kevin07696/donation-relay/internal/adapters/fiserv"
	"github.com/kevin07696/donation-relay/internal/config"
	"github.com/kevin07696/donation-relay/internal/domain"
	"github.com/kevin07696/donation-relay/pkg/resilience"
	"github.com/kevin07696/donation-relay/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingGateway captures what the service asked the gateway to do
type recordingGateway struct {
	mu       sync.Mutex
	requests []*domain.CanonicalGatewayRequest
	deadline time.Time
	result   *domain.GatewayResult
	err      error
}

func (g *recordingGateway) Sale(ctx context.Context, req *domain.CanonicalGatewayRequest) (*domain.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	g.deadline, _ = ctx.Deadline()
	if g.err != nil {
		return nil, g.err
	}
	if g.result != nil {
		return g.result, nil
	}
	return &domain.GatewayResult{OK: true, Status: http.StatusOK, Data: domain.NewResponseData([]byte(`{"approved":true}`))}, nil
}

func completeConfig() config.GatewayConfig {
	return config.GatewayConfig{
		APIKey:      "test-api-key",
		APISecret:   "test-secret",
		PaymentsURL: "https://gateway.test/payments",
		Timeout:     2 * time.Second,
	}
}

func TestHandle_ForwardsCanonicalRequest(t *testing.T) {
	gateway := &recordingGateway{}
	cfg := completeConfig()
	cfg.StoreID = "store-9"
	cfg.NotificationURL = "https://relay.example.org/notify"
	svc := NewService(cfg, gateway, mocks.NewMockLogger(), resilience.TestTimeoutConfig())

	result, err := svc.Handle(context.Background(), []byte(`{"amount":"19.999","orderId":"o-1","description":"Spring drive"}`))
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, 200, result.Status)

	require.Len(t, gateway.requests, 1)
	sent := gateway.requests[0]
	assert.Equal(t, "20.00", sent.TransactionAmount.Total)
	assert.Equal(t, "USD", sent.TransactionAmount.Currency)
	assert.Equal(t, domain.TransactionTypeSale, sent.TransactionType)
	assert.Equal(t, "store-9", sent.StoreID)
	assert.Equal(t, "o-1", sent.OrderID)
	assert.Equal(t, "https://relay.example.org/notify", sent.TransactionNotificationURL)
	assert.Equal(t, "Spring drive", sent.HostedPaymentPageText)
}

func TestHandle_MaximumAmountReturnsResult(t *testing.T) {
	gateway := &recordingGateway{}
	svc := NewService(completeConfig(), gateway, mocks.NewMockLogger(), resilience.TestTimeoutConfig())

	var result *domain.GatewayResult
	var err error
	require.NotPanics(t, func() {
		result, err = svc.Handle(context.Background(), []byte(`{"amount":"1000000000"}`))
	})
	require.NoError(t, err)
	assert.True(t, result.OK)

	require.Len(t, gateway.requests, 1)
	assert.Equal(t, "1000000000.00", gateway.requests[0].TransactionAmount.Total)
}

func TestHandle_OversizedAmountNeverReachesGateway(t *testing.T) {
	gateway := &recordingGateway{}
	svc := NewService(completeConfig(), gateway, mocks.NewMockLogger(), resilience.TestTimeoutConfig())

	for _, body := range []string{`{"amount":"92233720368547758.08"}`, `{"amount":1e60000000}`} {
		require.NotPanics(t, func() {
			result, err := svc.Handle(context.Background(), []byte(body))
			assert.Nil(t, result)
			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidation))
			assert.Equal(t, domain.MsgInvalidAmount, domain.PublicMessage(err))
		}, body)
	}
	assert.Empty(t, gateway.requests)
}

func TestHandle_AppliesGatewayDeadline(t *testing.T) {
	gateway := &recordingGateway{}
	svc := NewService(completeConfig(), gateway, nil, resilience.TestTimeoutConfig())

	_, err := svc.Handle(context.Background(), []byte(`{"amount":5}`))
	require.NoError(t, err)

	require.False(t, gateway.deadline.IsZero(), "gateway call must carry a deadline")
	assert.WithinDuration(t, time.Now().Add(resilience.TestTimeoutConfig().ExternalAPI), gateway.deadline, time.Second)
}

func TestHandle_MissingConfigurationNeverCallsGateway(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.GatewayConfig)
	}{
		{name: "api key", mutate: func(c *config.GatewayConfig) { c.APIKey = "" }},
		{name: "api secret", mutate: func(c *config.GatewayConfig) { c.APISecret = "" }},
		{name: "payments url", mutate: func(c *config.GatewayConfig) { c.PaymentsURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := completeConfig()
			tt.mutate(&cfg)
			gateway := &recordingGateway{}
			svc := NewService(cfg, gateway, nil, nil)

			result, err := svc.Handle(context.Background(), []byte(`{"amount":50}`))

			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
			assert.Empty(t, gateway.requests)
		})
	}
}

func TestHandle_ConfigurationCheckedBeforeBody(t *testing.T) {
	gateway := &recordingGateway{}
	svc := NewService(config.GatewayConfig{}, gateway, nil, nil)

	_, err := svc.Handle(context.Background(), []byte(`not json`))

	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestHandle_ValidationNeverCallsGateway(t *testing.T) {
	gateway := &recordingGateway{}
	logger := mocks.NewMockLogger()
	svc := NewService(completeConfig(), gateway, logger, nil)

	result, err := svc.Handle(context.Background(), []byte(`{"currency":"USD"}`))

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, domain.MsgMissingPaymentFields, domain.PublicMessage(err))
	assert.Empty(t, gateway.requests)
	assert.Len(t, logger.WarnCalls, 1)
}

func TestHandle_GatewayResultPassedThrough(t *testing.T) {
	gateway := &recordingGateway{
		result: &domain.GatewayResult{OK: false, Status: 402, Data: domain.NewResponseData([]byte(`{"declined":true}`))},
	}
	svc := NewService(completeConfig(), gateway, nil, nil)

	result, err := svc.Handle(context.Background(), []byte(`{"amount":50}`))
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.Equal(t, 402, result.Status)
	assert.JSONEq(t, `{"declined":true}`, string(result.Data.JSON))
}

func TestHandle_TransportFailureIsNotAnError(t *testing.T) {
	gateway := &recordingGateway{result: domain.NewTransportFailureResult("connection refused")}
	svc := NewService(completeConfig(), gateway, nil, nil)

	result, err := svc.Handle(context.Background(), []byte(`{"amount":50}`))
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.Equal(t, 500, result.Status)
	assert.Equal(t, "connection refused", result.Data.Text)
}

func TestHandle_PreparationErrorPropagates(t *testing.T) {
	gateway := &recordingGateway{err: domain.WrapError(domain.ErrorCodeInternal, "internal server error", errors.New("rng"))}
	svc := NewService(completeConfig(), gateway, nil, nil)

	_, err := svc.Handle(context.Background(), []byte(`{"amount":50}`))

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInternal))
}

func TestHandle_WithFiservAdapter(t *testing.T) {
	client := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return mocks.NewResponse(http.StatusOK, "busy"), nil
	})
	cfg := completeConfig()
	adapter := fiserv.NewPaymentAdapter(fiserv.AuthConfig{APIKey: cfg.APIKey, APISecret: cfg.APISecret}, cfg.PaymentsURL, client, nil)
	svc := NewService(cfg, adapter, nil, nil)

	result, err := svc.Handle(context.Background(), []byte(`{"amount":50,"currency":"usd"}`))
	require.NoError(t, err)

	envelope, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"status":200,"data":"busy"}`, string(envelope))

	require.Equal(t, 1, client.CallCount())
	assert.Equal(t,
		`{"transactionAmount":{"total":"50.00","currency":"USD"},"transactionType":"SALE"}`,
		string(client.Bodies[0]))
}

func TestHandle_SecretNeverLeaks(t *testing.T) {
	client := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("tls: handshake failure")
	})
	logger := mocks.NewMockLogger()
	cfg := completeConfig()
	adapter := fiserv.NewPaymentAdapter(fiserv.AuthConfig{APIKey: cfg.APIKey, APISecret: cfg.APISecret}, cfg.PaymentsURL, client, logger)
	svc := NewService(cfg, adapter, logger, nil)

	result, err := svc.Handle(context.Background(), []byte(`{"amount":50}`))
	require.NoError(t, err)

	envelope, _ := json.Marshal(result)
	assert.NotContains(t, string(envelope), cfg.APISecret)
	assert.False(t, logger.Contains(cfg.APISecret))
}
