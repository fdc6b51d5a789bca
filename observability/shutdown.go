package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CloseTimeout bounds Close when the caller passes no positive timeout.
const CloseTimeout = 10 * time.Second

// Close exports whatever spans and metrics the SDK client still buffers and
// then releases the exporters. Both steps share one deadline derived from ctx,
// and a failed flush does not skip the shutdown.
func Close(ctx context.Context, p Provider, timeout time.Duration) error {
	if p == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = CloseTimeout
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var errs []error
	if err := p.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush telemetry: %w", err))
	}
	if err := p.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
	}
	return errors.Join(errs...)
}
