package fiserv

import (
	"encoding/base64"
	"testing"

	"github.com/kevin07696/donation-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-secret"
	testRequestID = "6f1c2c7e-1111-4a2b-9c3d-000000000001"
	testTimestamp = "1700000000000"
	testBody      = `{"transactionAmount":{"total":"50.00","currency":"USD"},"transactionType":"SALE"}`
)

func TestCalculateSignature_KnownVector(t *testing.T) {
	got, err := CalculateSignature(testAPIKey, testAPISecret, testRequestID, testTimestamp, []byte(testBody))
	require.NoError(t, err)

	// Reference value computed independently with HMAC-SHA256 + standard Base64
	assert.Equal(t, "1WQJaiJE/U77zYYCeMH4mVegaWq39o5E9z7POBsX+LY=", got)
}

func TestCalculateSignature_EmptyMessage(t *testing.T) {
	got, err := CalculateSignature("", "key", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "XV0TlWPJW1lnub2ajJsjOp3ttFByeUzSMtwbdIMmB9A=", got)
}

func TestCalculateSignature_Deterministic(t *testing.T) {
	first, err := CalculateSignature(testAPIKey, testAPISecret, testRequestID, testTimestamp, []byte(testBody))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := CalculateSignature(testAPIKey, testAPISecret, testRequestID, testTimestamp, []byte(testBody))
		require.NoError(t, err)
		assert.Equal(t, first, again, "Same input should produce same signature")
	}
}

func TestCalculateSignature_StandardBase64(t *testing.T) {
	got, err := CalculateSignature(testAPIKey, testAPISecret, testRequestID, testTimestamp, []byte(testBody))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Len(t, raw, 32, "HMAC-SHA256 should produce 32 raw bytes")
	assert.Len(t, got, 44, "Padded Base64 of 32 bytes is 44 characters")
}

func TestCalculateSignature_SensitiveToEveryInput(t *testing.T) {
	base, err := CalculateSignature(testAPIKey, testAPISecret, testRequestID, testTimestamp, []byte(testBody))
	require.NoError(t, err)

	tests := []struct {
		name      string
		apiKey    string
		secret    string
		requestID string
		timestamp string
		body      string
	}{
		{name: "api key", apiKey: testAPIKey + "x", secret: testAPISecret, requestID: testRequestID, timestamp: testTimestamp, body: testBody},
		{name: "secret", apiKey: testAPIKey, secret: "test-secreT", requestID: testRequestID, timestamp: testTimestamp, body: testBody},
		{name: "request id", apiKey: testAPIKey, secret: testAPISecret, requestID: "6f1c2c7e-1111-4a2b-9c3d-000000000002", timestamp: testTimestamp, body: testBody},
		{name: "timestamp", apiKey: testAPIKey, secret: testAPISecret, requestID: testRequestID, timestamp: "1700000000001", body: testBody},
		{name: "body single char", apiKey: testAPIKey, secret: testAPISecret, requestID: testRequestID, timestamp: testTimestamp,
			body: `{"transactionAmount":{"total":"50.01","currency":"USD"},"transactionType":"SALE"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSignature(tt.apiKey, tt.secret, tt.requestID, tt.timestamp, []byte(tt.body))
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestCalculateSignature_EmptySecret(t *testing.T) {
	got, err := CalculateSignature(testAPIKey, "", testRequestID, testTimestamp, []byte(testBody))

	assert.Empty(t, got)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeConfiguration))
}

func TestValidateSignature(t *testing.T) {
	validSig, err := CalculateSignature(testAPIKey, testAPISecret, testRequestID, testTimestamp, []byte(testBody))
	require.NoError(t, err)

	tests := []struct {
		name      string
		secret    string
		body      string
		signature string
		want      bool
	}{
		{name: "valid signature", secret: testAPISecret, body: testBody, signature: validSig, want: true},
		{name: "invalid signature", secret: testAPISecret, body: testBody, signature: "invalid", want: false},
		{name: "wrong key", secret: "wrong-secret", body: testBody, signature: validSig, want: false},
		{name: "wrong payload", secret: testAPISecret, body: `{"transactionType":"SALE"}`, signature: validSig, want: false},
		{name: "empty secret", secret: "", body: testBody, signature: validSig, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateSignature(testAPIKey, tt.secret, testRequestID, testTimestamp, []byte(tt.body), tt.signature)
			assert.Equal(t, tt.want, got)
		})
	}
}
