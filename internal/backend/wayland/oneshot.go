package wayland

import (
	"context"
	"fmt"
	"time"

	"github.com/zsh-edit-select/zes/internal/rendezvous"
)

// roundtripWindow bounds the initial drain used to give a wlroots-style
// compositor a chance to deliver the selection event without needing a
// mapped surface.
const roundtripWindow = 50 * time.Millisecond

// mutterAttempts/mutterPollMs bound the fallback used on compositors
// (Mutter/GNOME) that only deliver PRIMARY selection events to a client
// with a mapped, focus-eligible surface.
const (
	mutterAttempts = 50
	mutterPollMs   = 100
)

// OneShot performs a single PRIMARY read and publishes it with a fresh seed
// sequence, creating a transient input-inert surface if the first
// roundtrip didn't surface a selection event (Mutter/GNOME).
func (b *Backend) OneShot(ctx context.Context) ([]byte, bool, error) {
	if !b.hasPrimarySelection() {
		return nil, false, fmt.Errorf("wayland: compositor does not support primary-selection-unstable-v1")
	}

	if err := b.drainFor(roundtripWindow); err != nil {
		return nil, false, err
	}

	b.mu.Lock()
	gotOffer := b.psOfferID != 0
	b.mu.Unlock()

	if !gotOffer {
		surface, err := createDaemonSurface(b.c)
		if err != nil {
			return nil, false, fmt.Errorf("wayland: create transient surface: %w", err)
		}
		b.mu.Lock()
		b.surface = surface
		b.mu.Unlock()
		defer func() {
			b.mu.Lock()
			if b.surface != nil {
				b.surface.destroy(b.c)
				b.surface = nil
			}
			b.mu.Unlock()
		}()

		for i := 0; i < mutterAttempts; i++ {
			b.mu.Lock()
			gotOffer = b.psOfferID != 0
			b.mu.Unlock()
			if gotOffer {
				break
			}
			readable, err := b.c.pollReadable(mutterPollMs)
			if err != nil {
				return nil, false, err
			}
			if readable {
				ev, err := b.c.readEvent()
				if err != nil {
					return nil, false, err
				}
				if ev.fd >= 0 {
					closeFd(ev.fd)
				}
				b.dispatch(ev)
			}
		}
	}

	data, err := b.readCurrentPrimary()
	if err != nil {
		return nil, false, fmt.Errorf("wayland: oneshot read: %w", err)
	}
	b.mu.Lock()
	ok := b.psOfferID != 0
	b.mu.Unlock()

	if b.store != nil {
		if err := b.store.Publish(data, rendezvous.SeedSeq()); err != nil {
			return nil, false, fmt.Errorf("wayland: oneshot publish: %w", err)
		}
	}
	return data, ok, nil
}

// drainFor reads and dispatches events for up to d, used as the initial
// roundtrip so a wlroots-style compositor's selection event (if it arrives
// promptly) is seen without needing the Mutter surface fallback.
func (b *Backend) drainFor(d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		readable, err := b.c.pollReadable(int(remaining.Milliseconds()))
		if err != nil {
			return err
		}
		if !readable {
			return nil
		}
		ev, err := b.c.readEvent()
		if err != nil {
			return err
		}
		if ev.fd >= 0 {
			closeFd(ev.fd)
		}
		b.dispatch(ev)
	}
}
