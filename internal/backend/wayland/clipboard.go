package wayland

import (
	"context"
	"fmt"
)

// GetClipboard reads CLIPBOARD once via a short roundtrip, without touching
// the rendezvous files (spec.md §6.2).
func (b *Backend) GetClipboard(ctx context.Context) ([]byte, error) {
	if err := b.drainFor(roundtripWindow); err != nil {
		return nil, fmt.Errorf("wayland: get-clipboard roundtrip: %w", err)
	}
	data, err := b.readCurrentClipboard()
	if err != nil {
		return nil, fmt.Errorf("wayland: get-clipboard read: %w", err)
	}
	return data, nil
}
