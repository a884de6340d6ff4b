package x11

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/rendezvous"
)

// OneShot performs a single PRIMARY read, publishes it with a fresh seed
// sequence, and returns it. ctx is accepted for interface symmetry; the
// underlying xgb round-trip has no cancellation hook, so timeouts are
// bounded instead by the reader's backoff schedule.
func (b *Backend) OneShot(ctx context.Context) ([]byte, bool, error) {
	data, ok, err := readSelection(b.conn, b.win, b.atoms.selProp, b.atoms.primary, b.atoms.utf8, b.maxSelSize, b.backoff)
	if err != nil {
		return nil, false, fmt.Errorf("x11: oneshot read: %w", err)
	}
	seq := rendezvous.SeedSeq()
	publish := data
	if !ok {
		publish = []byte{}
	}
	if b.store != nil {
		if err := b.store.Publish(publish, seq); err != nil {
			return nil, false, fmt.Errorf("x11: oneshot publish: %w", err)
		}
	}
	b.log.Debug("oneshot complete", zap.Bool("owner", ok), zap.Int("bytes", len(publish)))
	return publish, ok, nil
}
