package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"hisho/internal/digest"
)

const digestWindow = 24 * time.Hour

// RunDigest builds and sends the daily digest for one user. onDemand digests
// reply even when there was no activity; scheduled ones stay silent.
func (d *Dispatcher) RunDigest(ctx context.Context, userID string, onDemand bool) error {
	now := d.now().In(d.location)
	today := now.Format("2006-01-02")

	activity, err := digest.Collect(d.store, userID, now.Add(-digestWindow), today)
	if err != nil {
		return fmt.Errorf("failed to collect activity: %w", err)
	}

	if !activity.HasActivity() {
		if onDemand {
			d.reply(ctx, userID, "Nothing to report for the last 24 hours.")
		}
		return nil
	}

	// The rendered activity doubles as the fallback when the model is down.
	body, err := digest.Summarize(ctx, d.provider, activity)
	if err != nil {
		log.Printf("[Dispatcher] Digest summary failed, sending raw digest: %v", err)
		body = "*Daily digest*\n\n" + activity.Render()
	}

	d.reply(ctx, userID, body)
	return nil
}

// DigestAll runs the digest for every user active inside the window. Used as
// the scheduler job; per-user failures are logged and do not stop the sweep.
func (d *Dispatcher) DigestAll(ctx context.Context) {
	users, err := d.store.ActiveUserIDs(d.now().Add(-digestWindow))
	if err != nil {
		log.Printf("[Dispatcher] Failed to list active users for digest: %v", err)
		return
	}

	log.Printf("[Dispatcher] Running digest for %d user(s)", len(users))
	for _, userID := range users {
		if err := d.RunDigest(ctx, userID, false); err != nil {
			log.Printf("[Dispatcher] Digest for %s failed: %v", userID, err)
			d.replyError(ctx, userID, false)
		}
	}
}
