// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done (Canceled or DeadlineExceeded), nil otherwise.
// Pipeline steps call this at entry so a canceled run stops between items
// rather than mid-request.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
