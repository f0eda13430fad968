package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

type fakeNotificationStore struct {
	pending []store.PendingNotification
	sent    []string
	failed  map[string]string
}

func newFakeNotificationStore(pending ...store.PendingNotification) *fakeNotificationStore {
	return &fakeNotificationStore{pending: pending, failed: make(map[string]string)}
}

func (f *fakeNotificationStore) ClaimPendingNotifications(_ context.Context, limit int) ([]store.PendingNotification, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeNotificationStore) MarkNotificationSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	f.remove(id)
	return nil
}

func (f *fakeNotificationStore) MarkNotificationFailed(_ context.Context, id, reason string) error {
	f.failed[id] = reason
	f.remove(id)
	return nil
}

func (f *fakeNotificationStore) remove(id string) {
	kept := f.pending[:0]
	for _, item := range f.pending {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.pending = kept
}

type fakeSender struct {
	configured bool
	failFor    map[string]error
	sentTo     []string
}

func (f *fakeSender) IsConfigured() bool { return f.configured }

func (f *fakeSender) SendHTMLEmail(to []string, subject, _ string) error {
	if err, ok := f.failFor[to[0]]; ok {
		return err
	}
	f.sentTo = append(f.sentTo, to[0])
	return nil
}

func TestDrainOnceMarksSent(t *testing.T) {
	fs := newFakeNotificationStore(
		store.PendingNotification{ID: "n1", Email: "a@b.c", Subject: "s1"},
		store.PendingNotification{ID: "n2", Email: "d@e.f", Subject: "s2"},
	)
	sender := &fakeSender{configured: true}
	worker := NewWorker(fs, sender, time.Second)

	worker.DrainOnce(context.Background())

	if len(fs.sent) != 2 {
		t.Fatalf("expected 2 sent, got %v", fs.sent)
	}
	if len(fs.failed) != 0 {
		t.Fatalf("expected no failures, got %v", fs.failed)
	}
	if len(sender.sentTo) != 2 || sender.sentTo[0] != "a@b.c" {
		t.Fatalf("expected oldest-first delivery, got %v", sender.sentTo)
	}
}

func TestDrainOnceMarksFailedOnSendError(t *testing.T) {
	fs := newFakeNotificationStore(
		store.PendingNotification{ID: "n1", Email: "bad@b.c"},
		store.PendingNotification{ID: "n2", Email: "good@b.c"},
	)
	sender := &fakeSender{
		configured: true,
		failFor:    map[string]error{"bad@b.c": errors.New("connection refused")},
	}
	worker := NewWorker(fs, sender, time.Second)

	worker.DrainOnce(context.Background())

	// One failure must not stop the batch.
	if len(fs.sent) != 1 || fs.sent[0] != "n2" {
		t.Fatalf("expected n2 sent, got %v", fs.sent)
	}
	if reason := fs.failed["n1"]; reason != "connection refused" {
		t.Fatalf("expected failure recorded for n1, got %v", fs.failed)
	}
}

func TestDrainOnceUnconfiguredSMTPFailsRows(t *testing.T) {
	fs := newFakeNotificationStore(store.PendingNotification{ID: "n1", Email: "a@b.c"})
	worker := NewWorker(fs, &fakeSender{configured: false}, time.Second)

	worker.DrainOnce(context.Background())

	if reason := fs.failed["n1"]; reason != "smtp not configured" {
		t.Fatalf("expected smtp-not-configured failure, got %v", fs.failed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	worker := NewWorker(newFakeNotificationStore(), &fakeSender{}, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestRenderNotificationTemplate(t *testing.T) {
	html, err := RenderNotification(TemplateData{
		AppName:  "TeamTaskFlow",
		Username: "Avery",
		Heading:  "New comment on your task",
		Body:     "Jordan commented on Ship the release.",
		LinkURL:  "http://localhost:5173/tasks/tsk_1",
		LinkText: "Open task",
	})
	if err != nil {
		t.Fatalf("RenderNotification: %v", err)
	}
	for _, want := range []string{"Avery", "New comment on your task", "Open task", "http://localhost:5173/tasks/tsk_1"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered email missing %q", want)
		}
	}
}

func TestRenderNotificationOmitsEmptyLink(t *testing.T) {
	html, err := RenderNotification(TemplateData{
		AppName: "TeamTaskFlow", Username: "Avery", Heading: "h", Body: "b",
	})
	if err != nil {
		t.Fatalf("RenderNotification: %v", err)
	}
	if strings.Contains(html, "class=\"button\"") {
		t.Fatal("expected no button without a link")
	}
}
