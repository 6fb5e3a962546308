package session

import (
	"context"
	"log/slog"
	"time"
)

// Store persists sessions by id. Get returns ErrNotFound for unknown or
// expired sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}

// Expirer is implemented by stores that need expired sessions purged.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartCleanup purges expired sessions every interval until ctx is done.
func StartCleanup(ctx context.Context, e Expirer, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := e.DeleteExpired(ctx)
				if err != nil {
					slog.Warn("session cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Debug("expired sessions purged", "count", n)
				}
			}
		}
	}()
}

// withTimeout bounds a store call by d. A non-positive d leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
