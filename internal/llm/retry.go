package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// schemaNudge is appended to the system prompt after a reply failed schema
// validation.
const schemaNudge = "\n\nYour previous reply did not match the required JSON format. Reply with only the JSON object."

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter. A reply that fails validation is retried
// once with a nudge toward the schema.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    logrus.FieldLogger
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg, log: logrus.StandardLogger()}
}

// WithRetryLogger is WithRetry with an explicit logger for retry notices.
func WithRetryLogger(p Provider, cfg RetryConfig, log logrus.FieldLogger) Provider {
	return &RetryProvider{inner: p, config: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidRetried := false
	attempts := max(r.config.MaxAttempts, 1)

	for attempt := range attempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.shouldRetry(err, &invalidRetried) {
			return nil, err
		}
		if invalidRetried && req.Schema != nil && !strings.HasSuffix(req.System, schemaNudge) {
			req.System += schemaNudge
		}

		// Last attempt: don't sleep, just return the error.
		if attempt == attempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"of":      attempts,
			"wait":    wait.Round(time.Millisecond).String(),
			"purpose": PurposeFrom(ctx),
			"model":   r.inner.ModelID(),
		}).WithError(err).Warn("LLM request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry determines if an error is retryable. An invalid response is
// retried once; see Retryable for the rest.
func (r *RetryProvider) shouldRetry(err error, invalidRetried *bool) bool {
	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}
	return Retryable(err)
}

// backoff computes the wait duration for the given attempt.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
