package notify

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewRetryingHTTPClient returns an *http.Client that retries connection
// errors, 429 and 5xx responses with exponential backoff. Webhook deliveries
// are idempotent enough for this; Fler calls must not use it.
func NewRetryingHTTPClient(maxRetries int, minWait, maxWait time.Duration, log *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = minWait
	rc.RetryWaitMax = maxWait
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil
	if log != nil {
		rc.Logger = log.With("component", "webhook")
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient()
}
