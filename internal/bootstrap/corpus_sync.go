package bootstrap

import (
	"context"
	"time"

	"github.com/kirillkom/governed-rag/internal/core/ports"
)

const corpusReloadTimeout = 2 * time.Minute

// SyncCorpus subscribes to corpus-updated broadcasts and then performs the
// initial index load. Subscription comes first: an update published while
// the initial load runs is delivered afterwards instead of being missed,
// and a reload is idempotent. onReload runs after every successful load.
func SyncCorpus(ctx context.Context, queue ports.MessageQueue, refresher ports.CorpusRefresher, onReload func()) error {
	err := queue.SubscribeCorpusUpdated(ctx, func(handlerCtx context.Context, _ string) error {
		reloadCtx, cancel := context.WithTimeout(handlerCtx, corpusReloadTimeout)
		defer cancel()
		if err := refresher.Reload(reloadCtx); err != nil {
			return err
		}
		if onReload != nil {
			onReload()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := refresher.Reload(ctx); err != nil {
		return err
	}
	if onReload != nil {
		onReload()
	}
	return nil
}
