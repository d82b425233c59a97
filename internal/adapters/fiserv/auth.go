package fiserv

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/kevin07696/donation-relay/internal/domain"
)

// AuthConfig holds HMAC authentication configuration for the Fiserv payments API
type AuthConfig struct {
	APIKey    string // Identifies the caller; sent in the Api-Key header
	APISecret string // Shared secret for HMAC signing; never transmitted
}

// CalculateSignature calculates the Message-Signature for a gateway request.
// Signature = Base64(HMAC-SHA256(apiKey + clientRequestID + timestamp + body, secret))
// The parts are concatenated without separators. body must be the exact bytes that are sent.
func CalculateSignature(apiKey, secret, clientRequestID, timestamp string, body []byte) (string, error) {
	if secret == "" {
		return "", domain.NewConfigurationError("FISERV_API_SECRET")
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(apiKey))
	h.Write([]byte(clientRequestID))
	h.Write([]byte(timestamp))
	h.Write(body)

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// ValidateSignature checks a Message-Signature in constant time
func ValidateSignature(apiKey, secret, clientRequestID, timestamp string, body []byte, signature string) bool {
	expected, err := CalculateSignature(apiKey, secret, clientRequestID, timestamp, body)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(signature))
}
