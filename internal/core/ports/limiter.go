package ports

import "context"

// AttemptLimiter throttles abuse-prone unauthenticated operations (signup,
// forgot-password) by an opaque key, typically "<op>:<ip>". Implementations
// return domain.ErrRateLimited when the key is over budget.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) error
}
