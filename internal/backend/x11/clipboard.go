package x11

import (
	"context"
	"fmt"
)

// GetClipboard reads CLIPBOARD once, without touching the rendezvous files
// (spec.md §6.2: get-clipboard is a plain stdout read, not a daemon op).
func (b *Backend) GetClipboard(ctx context.Context) ([]byte, error) {
	data, ok, err := readSelection(b.conn, b.win, b.atoms.clipProp, b.atoms.clipboard, b.atoms.utf8, b.maxClipSize, b.backoff)
	if err != nil {
		return nil, fmt.Errorf("x11: get clipboard: %w", err)
	}
	if !ok {
		return []byte{}, nil
	}
	return data, nil
}
