package email

import (
	"context"
	"log"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

// Sender sends one rendered email.
type Sender interface {
	IsConfigured() bool
	SendHTMLEmail(to []string, subject, htmlBody string) error
}

// NotificationStore is the slice of the store the worker needs.
type NotificationStore interface {
	ClaimPendingNotifications(ctx context.Context, limit int) ([]store.PendingNotification, error)
	MarkNotificationSent(ctx context.Context, notificationID string) error
	MarkNotificationFailed(ctx context.Context, notificationID, reason string) error
}

// Worker drains pending email_notifications rows, oldest first.
// Delivery is best effort: each row moves to sent or failed exactly once,
// with no retry, backoff or durable queue.
type Worker struct {
	store    NotificationStore
	sender   Sender
	interval time.Duration
	batch    int
}

func NewWorker(store NotificationStore, sender Sender, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Worker{
		store:    store,
		sender:   sender,
		interval: interval,
		batch:    20,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.DrainOnce(ctx)
		}
	}
}

// DrainOnce processes at most one batch of pending notifications.
func (w *Worker) DrainOnce(ctx context.Context) {
	pending, err := w.store.ClaimPendingNotifications(ctx, w.batch)
	if err != nil {
		log.Printf("email worker: claim pending: %v", err)
		return
	}

	for _, item := range pending {
		if !w.sender.IsConfigured() {
			if err := w.store.MarkNotificationFailed(ctx, item.ID, "smtp not configured"); err != nil {
				log.Printf("email worker: mark failed %s: %v", item.ID, err)
			}
			continue
		}
		if err := w.sender.SendHTMLEmail([]string{item.Email}, item.Subject, item.BodyHTML); err != nil {
			log.Printf("email worker: send %s: %v", item.ID, err)
			if markErr := w.store.MarkNotificationFailed(ctx, item.ID, err.Error()); markErr != nil {
				log.Printf("email worker: mark failed %s: %v", item.ID, markErr)
			}
			continue
		}
		if err := w.store.MarkNotificationSent(ctx, item.ID); err != nil {
			log.Printf("email worker: mark sent %s: %v", item.ID, err)
		}
	}
}
