package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"LocalCanvas/internal/state"
)

// Source is a board that can be snapshotted and observed.
type Source interface {
	Snapshot() *state.Snapshot
	Subscribe(fn func(state.Change)) (cancel func())
}

// Saver is the write half of a Store.
type Saver interface {
	Save(ctx context.Context, s *state.Snapshot) error
}

// AutoSave saves src to dst after every committed change, waiting delay for
// further changes before writing. Drag previews are not saved. The returned
// stop func unsubscribes, writes any pending change and waits for the saver
// to finish. Cancelling ctx stops saving without a final write.
func AutoSave(ctx context.Context, src Source, dst Saver, delay time.Duration) (stop func()) {
	dirty := make(chan struct{}, 1)
	quit := make(chan struct{})
	done := make(chan struct{})

	unsubscribe := src.Subscribe(func(c state.Change) {
		if !c.Committed() {
			return
		}
		select {
		case dirty <- struct{}{}:
		default:
		}
	})

	save := func() {
		if err := dst.Save(ctx, src.Snapshot()); err != nil {
			log.Printf("[STORAGE] Autosave failed: %v", err)
		}
	}

	go func() {
		defer close(done)
		var due <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
				due = time.After(delay)
			case <-due:
				due = nil
				save()
			case <-quit:
				pending := due != nil
				select {
				case <-dirty:
					pending = true
				default:
				}
				if pending {
					save()
				}
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(quit)
			<-done
		})
	}
}
