package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/autofix/pkg/domain"
)

// result is the value or error returned by one capability call.
type result[T any] struct {
	Value T
	Err   error
}

func (r result[T]) OK() bool {
	return r.Err == nil
}

// capture invokes fn and converts any error or panic into a *domain.CapabilityError.
// A positive timeout bounds the call.
func capture[T any](ctx context.Context, timeout time.Duration, capability, op string, fn func(context.Context) (T, error)) (res result[T]) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res = result[T]{Err: &domain.CapabilityError{
				Capability: capability,
				Op:         op,
				Err:        fmt.Errorf("panic: %v", p),
			}}
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		return result[T]{Value: v, Err: &domain.CapabilityError{Capability: capability, Op: op, Err: err}}
	}
	return result[T]{Value: v}
}

// errNotConfigured is returned when a capability was not wired into the engine.
func errNotConfigured(capability string) error {
	return fmt.Errorf("%s capability is not configured", capability)
}
