package build

import (
	"context"
	"fmt"
	"time"

	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
)

// retryWithBackoff runs operation up to maxAttempts times, doubling the delay
// after each failure. Conflicts and terminal-state errors are returned at
// once since repeating the write cannot succeed. It reports the attempts made.
func retryWithBackoff(ctx context.Context, operation func(context.Context) error, maxAttempts int, initialDelay time.Duration, log logger.Logger, operationName string) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	delay := initialDelay

	for i := 0; i < maxAttempts; i++ {
		err = operation(ctx)
		if err == nil {
			return i + 1, nil
		}
		switch errors.KindOf(err) {
		case errors.ErrCodeConflict, errors.ErrCodeTerminalState, errors.ErrCodeNotFound:
			return i + 1, err
		}

		if i < maxAttempts-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxAttempts": maxAttempts,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return i + 1, fmt.Errorf("%s interrupted: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return maxAttempts, fmt.Errorf("%s failed after %d attempts: %w", operationName, maxAttempts, err)
}
