package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/models"
)

// PurgePendingSignups deletes pending signups created before now - retention.
func PurgePendingSignups(ctx context.Context, db *gorm.DB, now time.Time, retention time.Duration) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", now.Add(-retention)).
		Delete(&models.PendingSignup{})
	return res.RowsAffected, res.Error
}

// StartPendingSignupPurge runs PurgePendingSignups every interval until ctx
// is cancelled. The returned channel is closed when the loop exits.
func StartPendingSignupPurge(ctx context.Context, db *gorm.DB, interval, retention time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := PurgePendingSignups(ctx, db, now, retention)
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("[Purge] failed to purge pending signups: %v", err)
					}
					continue
				}
				if n > 0 {
					log.Printf("[Purge] removed %d stale pending signups", n)
				}
			}
		}
	}()

	return done
}
