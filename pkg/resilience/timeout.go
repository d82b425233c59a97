package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the relay's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//   HTTP Handler (40s)
//     ↓
//   Relay Service (35s)
//     ↓
//   Payment Gateway call (30s, FISERV_TIMEOUT)
//
// Each layer is strictly shorter than its parent: a slow gateway yields a
// transport failure result before the handler deadline.
type TimeoutConfig struct {
	HTTPHandler time.Duration // Overall request timeout
	Service     time.Duration // Relay operation timeout
	ExternalAPI time.Duration // Outbound gateway call
}

// handlerSlack and serviceSlack keep parents strictly longer than children
const (
	serviceSlack = 5 * time.Second
	handlerSlack = 10 * time.Second
)

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return NewTimeoutConfig(30 * time.Second)
}

// NewTimeoutConfig derives the hierarchy from the gateway call budget
func NewTimeoutConfig(externalAPI time.Duration) *TimeoutConfig {
	if externalAPI <= 0 {
		externalAPI = 30 * time.Second
	}
	return &TimeoutConfig{
		HTTPHandler: externalAPI + handlerSlack,
		Service:     externalAPI + serviceSlack,
		ExternalAPI: externalAPI,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Service:     4 * time.Second,
		ExternalAPI: 2 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// ExternalAPIContext creates a context for external API calls
func (tc *TimeoutConfig) ExternalAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ExternalAPI)
}
