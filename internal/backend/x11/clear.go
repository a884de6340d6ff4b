package x11

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// ClearPrimary releases PRIMARY ownership by setting the selection owner to
// None, mirroring XSetSelectionOwner(d, PRIMARY, None, CurrentTime) in the
// original C. If nothing owns PRIMARY this is a harmless no-op server side.
func (b *Backend) ClearPrimary(ctx context.Context) error {
	if err := xproto.SetSelectionOwnerChecked(b.conn, xproto.Window(0), b.atoms.primary, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("x11: clear primary: %w", err)
	}
	return nil
}
