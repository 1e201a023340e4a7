package app

import (
	"context"
	"time"
)

// storeTimeout bounds a single storage statement.
const storeTimeout = 5 * time.Second

// storeContext detaches ctx from caller cancellation so a disconnecting client
// does not abort a statement mid-flight, then bounds it with storeTimeout.
func storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}
