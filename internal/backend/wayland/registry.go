package wayland

import "fmt"

// globals collected from the registry before the first wl_callback.done.
type globals struct {
	compositor, shm, seat, ddManager, psManager, wmBase uint32
	haveCompositor, haveShm, haveSeat                    bool
	haveDDManager, havePSManager, haveWmBase             bool
}

// connect opens the Wayland socket, requests the registry, and binds every
// global this backend needs. primary-selection-unstable-v1 support is
// optional (older compositors lack it); wl_data_device_manager is required.
func connect() (*conn, globals, error) {
	c, err := dial()
	if err != nil {
		return nil, globals{}, err
	}

	if err := c.send(idDisplay, opDisplayGetReg, encodeUint32(idRegistry)); err != nil {
		c.close()
		return nil, globals{}, err
	}
	if err := c.send(idDisplay, opDisplaySync, encodeUint32(idSyncA)); err != nil {
		c.close()
		return nil, globals{}, err
	}

	var g globals
	for {
		ev, err := c.readEvent()
		if err != nil {
			c.close()
			return nil, globals{}, err
		}
		if ev.fd >= 0 {
			closeFd(ev.fd)
		}

		switch {
		case ev.objectID == idRegistry && ev.opcode == evRegistryGlobal:
			name, rest, derr := decodeUint32(ev.payload)
			if derr != nil {
				continue
			}
			iface, _, derr := decodeString(rest)
			if derr != nil {
				continue
			}
			switch iface {
			case "wl_compositor":
				g.compositor, g.haveCompositor = name, true
			case "wl_shm":
				g.shm, g.haveShm = name, true
			case "wl_seat":
				g.seat, g.haveSeat = name, true
			case "wl_data_device_manager":
				g.ddManager, g.haveDDManager = name, true
			case "zwp_primary_selection_device_manager_v1":
				g.psManager, g.havePSManager = name, true
			case "xdg_wm_base":
				g.wmBase, g.haveWmBase = name, true
			}
		case ev.objectID == idSyncA && ev.opcode == evCallbackDone:
			goto bound
		}
	}

bound:
	if !g.haveCompositor || !g.haveShm || !g.haveSeat || !g.haveDDManager {
		c.close()
		return nil, globals{}, fmt.Errorf("wayland: compositor missing a required global (compositor=%v shm=%v seat=%v data_device_manager=%v)",
			g.haveCompositor, g.haveShm, g.haveSeat, g.haveDDManager)
	}

	if err := bindGlobal(c, g.compositor, "wl_compositor", 4, idCompositor); err != nil {
		c.close()
		return nil, globals{}, err
	}
	if err := bindGlobal(c, g.shm, "wl_shm", 1, idShm); err != nil {
		c.close()
		return nil, globals{}, err
	}
	if err := bindGlobal(c, g.seat, "wl_seat", 5, idSeat); err != nil {
		c.close()
		return nil, globals{}, err
	}
	if err := bindGlobal(c, g.ddManager, "wl_data_device_manager", 3, idDDManager); err != nil {
		c.close()
		return nil, globals{}, err
	}
	if g.haveWmBase {
		if err := bindGlobal(c, g.wmBase, "xdg_wm_base", 1, idWmBase); err != nil {
			c.close()
			return nil, globals{}, err
		}
	}
	if g.havePSManager {
		if err := bindGlobal(c, g.psManager, "zwp_primary_selection_device_manager_v1", 1, idPSManager); err != nil {
			c.close()
			return nil, globals{}, err
		}
	}

	// Second sync: drains capability/format events before the caller does
	// anything selection-specific.
	if err := c.send(idDisplay, opDisplaySync, encodeUint32(idSyncB)); err != nil {
		c.close()
		return nil, globals{}, err
	}
	for {
		ev, err := c.readEvent()
		if err != nil {
			c.close()
			return nil, globals{}, err
		}
		if ev.fd >= 0 {
			closeFd(ev.fd)
		}
		if ev.objectID == idSyncB && ev.opcode == evCallbackDone {
			break
		}
	}

	return c, g, nil
}

func bindGlobal(c *conn, name uint32, iface string, version uint32, newID uint32) error {
	return c.send(idRegistry, opRegistryBind, concat(
		encodeUint32(name),
		encodeString(iface),
		encodeUint32(version),
		encodeUint32(newID),
	))
}
