package redis

import (
	"context"
	"io"
)

// Shutdown returns a graceful-shutdown hook closing the client. The context
// is accepted for hook-interface compatibility; go-redis Close does not
// block on in-flight commands.
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(_ context.Context) error {
		return client.Close()
	}
}
