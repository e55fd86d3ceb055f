package registry

import (
	"context"
	"log"
	"time"
)

// DefaultHeartbeatInterval is the default interval between heartbeat updates.
const DefaultHeartbeatInterval = 30 * time.Second

// StartHeartbeat launches a goroutine that periodically refreshes the
// local agent's lastSeen timestamp until ctx is cancelled. Storage
// errors are logged and do not stop the loop. The returned channel is
// closed once the goroutine has fully stopped, so shutdown can wait on
// it deterministically.
func (r *Registry) StartHeartbeat(ctx context.Context, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Heartbeat(); err != nil {
					log.Printf("registry: heartbeat %s: %v", r.id, err)
				}
			}
		}
	}()
	return done
}
