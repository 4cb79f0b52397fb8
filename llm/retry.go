package llm

import (
	"context"
	"fmt"
	"time"

	"curately/logger"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// ExhaustedError wraps the terminal failure after every retry attempt was
// spent. Callers convert it to their unit-level fallback; the helper never
// swallows it.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("llm call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retrier applies exponential backoff around Client.Generate.
// The zero value retries 3 times with a 1s base delay.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep is the delay primitive; replaced in tests. A nil Sleep waits
	// on a timer without blocking unrelated goroutines.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (r Retrier) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return r.MaxAttempts
}

func (r Retrier) baseDelay() time.Duration {
	if r.BaseDelay <= 0 {
		return defaultBaseDelay
	}
	return r.BaseDelay
}

func (r Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call runs client.Generate with backoff delays of base·2^attempt
// (1s, 2s, 4s by default). Each failure logs the attempt number and the
// error kind, never request contents or credentials. Context cancellation
// stops retrying immediately.
func (r Retrier) Call(ctx context.Context, client Client, req Request) (string, error) {
	maxAttempts := r.maxAttempts()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, err := client.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt < maxAttempts-1 {
			delay := r.baseDelay() * (1 << attempt)
			logger.Log.Warnf("llm call failed (attempt %d/%d), retrying in %s: %T",
				attempt+1, maxAttempts, delay, err)
			if err := r.sleep(ctx, delay); err != nil {
				return "", err
			}
		} else {
			logger.Log.Errorf("llm call failed after %d attempts: %T", maxAttempts, err)
		}
	}

	return "", &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// CallWithRetry is the package-default Retrier.
func CallWithRetry(ctx context.Context, client Client, req Request) (string, error) {
	return Retrier{}.Call(ctx, client, req)
}
