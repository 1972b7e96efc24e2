package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errNoGatewayResult = errors.New("gateway returned no result")

// callGateway bounds a gateway call by timeout and turns a panic inside the
// gateway into an ordinary error.
func callGateway[T any](ctx context.Context, timeout time.Duration, call func(ctx context.Context) (*T, error)) (result *T, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()

	result, err = call(ctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errNoGatewayResult
	}
	return result, nil
}
