package ports

import "net/http"

// HTTPClient is the outbound transport used to reach the payment gateway.
// *http.Client satisfies it; tests inject mocks.MockHTTPClient.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
