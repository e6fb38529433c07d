// internal/common/database/retry.go
package database

import (
	"context"
	"time"
)

const (
	connectAttempts = 5
	pingTimeout     = 5 * time.Second
)

var retryBackoff = 500 * time.Millisecond

// retry calls ping until it succeeds, doubling the wait between attempts.
func retry(ctx context.Context, attempts int, ping func(context.Context) error) error {
	wait := retryBackoff
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(wait):
				wait *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}
