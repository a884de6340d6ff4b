package wayland

import (
	"context"
	"fmt"
)

// ClearPrimary releases PRIMARY ownership via
// zwp_primary_selection_device_v1.set_selection(NULL), mirroring the
// original C's run_clear_primary.
func (b *Backend) ClearPrimary(ctx context.Context) error {
	if !b.hasPrimarySelection() {
		return fmt.Errorf("wayland: compositor does not support primary-selection-unstable-v1")
	}
	// set_selection(source: object?, serial: uint) — both fields are
	// required on the wire even when clearing (source=0, serial=0),
	// matching zwp_primary_selection_device_v1_set_selection(ps_device,
	// NULL, 0) in the original C.
	if err := b.c.send(idPSDevice, opPSDeviceSetSelection, concat(encodeUint32(0), encodeUint32(0))); err != nil {
		return fmt.Errorf("wayland: clear primary: %w", err)
	}
	return nil
}
