package check

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/logger"
)

// ErrTimeout is returned when the plugin did not finish in time.
var ErrTimeout = errors.New("plugin timed out")

// RunWithTimeout runs fn and returns UNKNOWN if it does not return before the timeout.
// fn receives a context with the deadline and should pass it to all blocking calls.
func RunWithTimeout(ctx context.Context, timeout time.Duration, label string, fn func(context.Context) *Result) *Result {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan *Result, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		err := fmt.Errorf("%w after %d seconds", ErrTimeout, int(timeout.Seconds()))
		logger.Log.Debugf("%s: %s", label, err.Error())

		return Unknownf(label, "%s", err.Error())
	}
}
