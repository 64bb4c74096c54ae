package sdk

import (
	"context"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"todod/internals/timeouts"
)

const DefaultPingTimeout = timeouts.Probe

type InfoLogger interface {
	Info(msg string, args ...any)
}

func IsRunning(baseURL string) bool {
	return IsRunningWithTimeout(baseURL, DefaultPingTimeout)
}

func IsRunningWithTimeout(baseURL string, timeout time.Duration) bool {
	if baseURL == "" {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client := NewClient(
		WithBaseURL(baseURL),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	_, err := client.Version(ctx)
	return err == nil
}

// WaitForStart polls the daemon until it answers or the backoff budget
// runs out.
func WaitForStart(baseURL string, logger InfoLogger) bool {
	backoff := retry.WithMaxRetries(timeouts.StartupAttempts, retry.NewExponential(timeouts.StartupBackoff))
	attempt := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempt++
		if logger != nil {
			logger.Info("Waiting for server to start", "attempt", attempt)
		}
		if IsRunning(baseURL) {
			return nil
		}
		return retry.RetryableError(context.DeadlineExceeded)
	})
	return err == nil
}
