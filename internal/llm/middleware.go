package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware decorates a Completer with a cross-cutting concern.
type Middleware func(Completer) Completer

// Wrap applies middlewares in left-to-right order:
// Wrap(inner, A, B) == A(B(inner)).
func Wrap(inner Completer, mws ...Middleware) Completer {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Retry with exponential backoff --------

// Retry retries failed calls up to maxAttempts with exponential backoff
// starting at baseDelay. It stops as soon as ctx is done.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Completer) Completer {
		return CompleterFunc(func(ctx context.Context, system string, history []Message) (string, error) {
			var last error
			for i := 0; i < maxAttempts; i++ {
				out, err := next.Complete(ctx, system, history)
				if err == nil {
					return out, nil
				}
				last = err
				if i == maxAttempts-1 {
					break
				}
				timer := time.NewTimer(baseDelay * time.Duration(1<<i))
				select {
				case <-ctx.Done():
					timer.Stop()
					return "", ctx.Err()
				case <-timer.C:
				}
			}
			return "", last
		})
	}
}

// -------- Rate limiting --------

// RateLimit caps calls at rps with the given burst. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Completer) Completer {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		lim := rate.NewLimiter(rate.Limit(rps), burst)
		return CompleterFunc(func(ctx context.Context, system string, history []Message) (string, error) {
			if err := lim.Wait(ctx); err != nil {
				return "", err
			}
			return next.Complete(ctx, system, history)
		})
	}
}

// -------- Logging --------

// WithLogging logs every call at debug level and failures at warn.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Completer) Completer {
		return CompleterFunc(func(ctx context.Context, system string, history []Message) (string, error) {
			phase := PhaseFrom(ctx)
			start := time.Now()
			size := len(system)
			for _, m := range history {
				size += len(m.Text)
			}
			out, err := next.Complete(ctx, system, history)
			if err != nil {
				logger.Warn("model call failed",
					zap.String("phase", phase),
					zap.Int("turns", len(history)),
					zap.Error(err))
				return out, err
			}
			logger.Debug("model call",
				zap.String("phase", phase),
				zap.Int("request_bytes", size),
				zap.Int("response_bytes", len(out)),
				zap.Duration("took", time.Since(start)))
			return out, nil
		})
	}
}

// -------- Observation hook --------

// Observer receives the outcome of every call.
type Observer func(phase string, took time.Duration, err error)

// WithObserver reports every call to obs.
func WithObserver(obs Observer) Middleware {
	return func(next Completer) Completer {
		if obs == nil {
			return next
		}
		return CompleterFunc(func(ctx context.Context, system string, history []Message) (string, error) {
			start := time.Now()
			out, err := next.Complete(ctx, system, history)
			obs(PhaseFrom(ctx), time.Since(start), err)
			return out, err
		})
	}
}
