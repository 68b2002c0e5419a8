package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"
)

type syncQueueFake struct {
	events  *[]string
	handler func(context.Context, string) error
	err     error
}

func (f *syncQueueFake) PublishDocumentIngested(context.Context, string) error { return nil }
func (f *syncQueueFake) PublishCorpusUpdated(context.Context, string) error    { return nil }

func (f *syncQueueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string, time.Duration) error) error {
	return errors.New("not implemented")
}

func (f *syncQueueFake) SubscribeCorpusUpdated(_ context.Context, handler func(context.Context, string) error) error {
	if f.err != nil {
		return f.err
	}
	*f.events = append(*f.events, "subscribe")
	f.handler = handler
	return nil
}

type refresherFake struct {
	events *[]string
	err    error
}

func (f *refresherFake) Reload(context.Context) error {
	if f.err != nil {
		return f.err
	}
	*f.events = append(*f.events, "reload")
	return nil
}

func TestSyncCorpusSubscribesBeforeInitialLoad(t *testing.T) {
	var events []string
	queue := &syncQueueFake{events: &events}
	refresher := &refresherFake{events: &events}

	reloads := 0
	if err := SyncCorpus(context.Background(), queue, refresher, func() { reloads++ }); err != nil {
		t.Fatalf("SyncCorpus() error = %v", err)
	}

	if len(events) != 2 || events[0] != "subscribe" || events[1] != "reload" {
		t.Fatalf("an update published during the initial load would be missed; order: %v", events)
	}
	if reloads != 1 {
		t.Fatalf("onReload after initial load: want 1, got %d", reloads)
	}

	if err := queue.handler(context.Background(), "doc-1"); err != nil {
		t.Fatalf("corpus-updated handler error = %v", err)
	}
	if reloads != 2 {
		t.Fatalf("onReload after broadcast: want 2, got %d", reloads)
	}
}

func TestSyncCorpusFailsWhenSubscriptionFails(t *testing.T) {
	var events []string
	errSub := errors.New("no broker")
	queue := &syncQueueFake{events: &events, err: errSub}
	refresher := &refresherFake{events: &events}

	if err := SyncCorpus(context.Background(), queue, refresher, nil); !errors.Is(err, errSub) {
		t.Fatalf("expected subscription error, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("no load may happen without an active subscription: %v", events)
	}
}

func TestSyncCorpusSurfacesInitialLoadError(t *testing.T) {
	var events []string
	errLoad := errors.New("postgres down")
	queue := &syncQueueFake{events: &events}
	refresher := &refresherFake{events: &events, err: errLoad}

	if err := SyncCorpus(context.Background(), queue, refresher, nil); !errors.Is(err, errLoad) {
		t.Fatalf("expected load error, got %v", err)
	}
}
