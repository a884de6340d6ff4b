package wayland

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/rendezvous"
)

// pollCadenceMs matches the original Wayland monitor's 50ms fallback poll,
// which re-reads the current offer to catch content changes within the
// same selection (e.g. extending a selection in a terminal without a new
// owner-change event).
const pollCadenceMs = 50

// Daemon runs the persistent PRIMARY monitor loop until ctx is cancelled.
// Requires the compositor to support primary-selection-unstable-v1.
func (b *Backend) Daemon(ctx context.Context) error {
	if !b.hasPrimarySelection() {
		return fmt.Errorf("wayland: compositor does not support primary-selection-unstable-v1")
	}

	surface, err := createDaemonSurface(b.c)
	if err != nil {
		return fmt.Errorf("wayland: create daemon surface: %w", err)
	}
	b.mu.Lock()
	b.surface = surface
	b.mu.Unlock()

	seq := rendezvous.SeedSeq()
	if err := b.store.Publish([]byte{}, seq); err != nil {
		return fmt.Errorf("wayland: initial publish: %w", err)
	}
	b.log.Info("daemon started", zap.Uint64("seq", seq))

	for {
		select {
		case <-ctx.Done():
			b.log.Info("daemon shutting down")
			return nil
		default:
		}

		readable, err := b.c.pollReadable(pollCadenceMs)
		if err != nil {
			return fmt.Errorf("wayland: poll: %w", err)
		}
		if !readable {
			// Fallback: re-read the current offer to catch in-place
			// content changes that don't re-trigger a selection event.
			// Only when an offer is actually active — an empty PRIMARY
			// isn't re-published every cadence tick.
			b.mu.Lock()
			hasOffer := b.psOfferID != 0 && b.psHasText
			b.mu.Unlock()
			if hasOffer {
				if err := b.refreshAndPublish(&seq); err != nil {
					b.log.Warn("poll-fallback refresh failed", zap.Error(err))
				}
			}
			continue
		}

		ev, err := b.c.readEvent()
		if err != nil {
			return fmt.Errorf("wayland: read event: %w", err)
		}
		if ev.fd >= 0 {
			closeFd(ev.fd)
		}

		res := b.dispatch(ev)
		if res.primarySelChanged {
			if err := b.refreshAndPublish(&seq); err != nil {
				b.log.Warn("selection refresh failed", zap.Error(err))
			}
		}
	}
}

// refreshAndPublish bumps seq unconditionally (rule: every selection event
// republishes, even byte-identical content) and writes the current PRIMARY
// text, or empty if there is no owner.
func (b *Backend) refreshAndPublish(seq *uint64) error {
	data, err := b.readCurrentPrimary()
	*seq++
	if err != nil {
		_ = b.store.Publish([]byte{}, *seq)
		return err
	}
	return b.store.Publish(data, *seq)
}
