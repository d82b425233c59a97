package fiserv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/donation-relay/internal/adapters/ports"
	"github.com/kevin07696/donation-relay/internal/domain"
	"github.com/kevin07696/donation-relay/pkg/encoding"
	"github.com/kevin07696/donation-relay/pkg/timeutil"
)

// Gateway request headers
const (
	HeaderContentType      = "Content-Type"
	HeaderAPIKey           = "Api-Key"
	HeaderClientRequestID  = "Client-Request-Id"
	HeaderTimestamp        = "Timestamp"
	HeaderMessageSignature = "Message-Signature"
)

// maxResponseBytes caps how much of a gateway reply is buffered
const maxResponseBytes = 1 << 20

// PaymentAdapter implements ports.PaymentGateway for the Fiserv payments API
type PaymentAdapter struct {
	config       AuthConfig
	paymentsURL  string
	httpClient   ports.HTTPClient
	logger       ports.Logger
	clock        timeutil.Clock
	newRequestID func() (string, error)
}

// Option customizes a PaymentAdapter
type Option func(*PaymentAdapter)

// WithClock overrides the timestamp source
func WithClock(clock timeutil.Clock) Option {
	return func(a *PaymentAdapter) {
		a.clock = clock
	}
}

// WithRequestIDGenerator overrides Client-Request-Id generation
func WithRequestIDGenerator(gen func() (string, error)) Option {
	return func(a *PaymentAdapter) {
		a.newRequestID = gen
	}
}

// NewPaymentAdapter creates a new payment adapter with dependency injection
func NewPaymentAdapter(config AuthConfig, paymentsURL string, httpClient ports.HTTPClient, logger ports.Logger, opts ...Option) *PaymentAdapter {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	a := &PaymentAdapter{
		config:       config,
		paymentsURL:  paymentsURL,
		httpClient:   httpClient,
		logger:       logger,
		clock:        timeutil.SystemClock{},
		newRequestID: newUUID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Sale implements ports.PaymentGateway.Sale.
//
// The body is serialized once; the same bytes are signed and transmitted. Every call
// gets a fresh Client-Request-Id and Timestamp. There are no retries.
func (a *PaymentAdapter) Sale(ctx context.Context, req *domain.CanonicalGatewayRequest) (*domain.GatewayResult, error) {
	payload, err := encoding.MarshalCanonical(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternal, "internal server error", fmt.Errorf("failed to marshal request: %w", err))
	}

	requestID, err := a.newRequestID()
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternal, "internal server error", fmt.Errorf("failed to generate request id: %w", err))
	}
	timestamp := timeutil.EpochMillis(a.clock.Now())

	signature, err := CalculateSignature(a.config.APIKey, a.config.APISecret, requestID, timestamp, payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.paymentsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeConfiguration, "Invalid FISERV_PAYMENTS_URL", fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set(HeaderContentType, "application/json")
	httpReq.Header.Set(HeaderAPIKey, a.config.APIKey)
	httpReq.Header.Set(HeaderClientRequestID, requestID)
	httpReq.Header.Set(HeaderTimestamp, timestamp)
	httpReq.Header.Set(HeaderMessageSignature, signature)

	// Log request (excluding sensitive data)
	a.logger.Info("sending sale to payment gateway",
		ports.String("method", httpReq.Method),
		ports.String("gateway_host", httpReq.URL.Host),
		ports.String("client_request_id", requestID),
		ports.String("currency", req.TransactionAmount.Currency),
	)
	a.logger.Debug("request signed",
		ports.String("client_request_id", requestID),
		ports.Int("mac_length", len(signature)),
		ports.Int("body_bytes", len(payload)),
	)

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return a.transportFailure(requestID, describeTransportError(ctx, err), err), nil
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return a.transportFailure(requestID, fmt.Sprintf("failed to read gateway response: %v", err), err), nil
	}

	result := &domain.GatewayResult{
		OK:     httpResp.StatusCode >= 200 && httpResp.StatusCode < 300,
		Status: httpResp.StatusCode,
		Data:   domain.NewResponseData(body),
	}

	a.logger.Info("payment gateway responded",
		ports.String("client_request_id", requestID),
		ports.Int("status", httpResp.StatusCode),
		ports.Bool("ok", result.OK),
		ports.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (a *PaymentAdapter) transportFailure(requestID, description string, err error) *domain.GatewayResult {
	a.logger.Error("payment gateway request failed",
		ports.String("client_request_id", requestID),
		ports.Err(err),
	)
	return domain.NewTransportFailureResult(description)
}

// describeTransportError produces the caller-facing description of a failed call
func describeTransportError(ctx context.Context, err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return "payment gateway request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "payment gateway request canceled"
	}
	return err.Error()
}
