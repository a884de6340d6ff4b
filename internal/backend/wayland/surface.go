package wayland

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// daemonSurface is the 1x1 fully-transparent, input-inert surface the
// daemon maps so that some compositors (notably Mutter/GNOME) grant it a
// wl_seat with selection capability at all — without a mapped surface,
// GNOME never delivers data_device/primary_selection_device selection
// events to a client with no visible window.
type daemonSurface struct {
	surface  uint32
	xdgSurf  uint32
	xdgTop   uint32
	buffer   uint32
	mapped   bool
}

// createDaemonSurface allocates a 1x1 ARGB8888 SHM buffer via memfd_create,
// an empty input region (so the surface never steals pointer/keyboard
// focus), and an xdg_toplevel, then commits once to trigger the initial
// configure. The second commit, which attaches the pixel and maps the
// surface, is made by attach when that configure arrives.
func createDaemonSurface(c *conn) (*daemonSurface, error) {
	fd, err := unix.MemfdCreate("zes-buf", 0)
	if err != nil {
		return nil, fmt.Errorf("wayland: memfd_create: %w", err)
	}
	defer closeFd(fd)

	const stride, size = 4, 4
	if err := unix.Ftruncate(fd, size); err != nil {
		return nil, fmt.Errorf("wayland: ftruncate shm buffer: %w", err)
	}

	if err := c.sendFd(idShm, opShmCreatePool, concat(encodeUint32(idShmPool), encodeInt32(size)), fd); err != nil {
		return nil, fmt.Errorf("wayland: create shm pool: %w", err)
	}
	const formatARGB8888 = 0
	if err := c.send(idShmPool, opShmPoolCreateBuffer, concat(
		encodeUint32(idBuffer),
		encodeInt32(0), encodeInt32(1), encodeInt32(1),
		encodeInt32(stride), encodeUint32(formatARGB8888),
	)); err != nil {
		return nil, fmt.Errorf("wayland: create shm buffer: %w", err)
	}
	if err := c.send(idShmPool, opShmPoolDestroy, nil); err != nil {
		return nil, err
	}

	if err := c.send(idCompositor, opCompositorCreateSurface, encodeUint32(idSurface)); err != nil {
		return nil, fmt.Errorf("wayland: create surface: %w", err)
	}
	if err := c.send(idCompositor, opCompositorCreateRegion, encodeUint32(idRegion)); err != nil {
		return nil, err
	}
	if err := c.send(idSurface, opSurfaceSetInputRegion, encodeUint32(idRegion)); err != nil {
		return nil, err
	}
	if err := c.send(idRegion, opRegionDestroy, nil); err != nil {
		return nil, err
	}

	if err := c.send(idWmBase, opWmBaseGetXdgSurface, concat(encodeUint32(idXdgSurface), encodeUint32(idSurface))); err != nil {
		return nil, fmt.Errorf("wayland: get xdg_surface: %w", err)
	}
	if err := c.send(idXdgSurface, opXdgSurfaceGetToplevel, encodeUint32(idXdgToplevel)); err != nil {
		return nil, fmt.Errorf("wayland: get xdg_toplevel: %w", err)
	}

	if err := c.send(idSurface, opSurfaceCommit, nil); err != nil {
		return nil, err
	}

	ds := &daemonSurface{surface: idSurface, xdgSurf: idXdgSurface, xdgTop: idXdgToplevel, buffer: idBuffer}
	return ds, nil
}

// attach maps the surface by attaching the transparent pixel and
// committing, to be called after the first xdg_surface.configure event.
func (ds *daemonSurface) attach(c *conn) error {
	if err := c.send(ds.surface, opSurfaceAttach, concat(encodeUint32(ds.buffer), encodeInt32(0), encodeInt32(0))); err != nil {
		return err
	}
	if err := c.send(ds.surface, opSurfaceDamage, concat(encodeInt32(0), encodeInt32(0), encodeInt32(1), encodeInt32(1))); err != nil {
		return err
	}
	if err := c.send(ds.surface, opSurfaceCommit, nil); err != nil {
		return err
	}
	ds.mapped = true
	return nil
}

// handleXdgSurfaceConfigure acks the configure and, on first configure,
// maps the surface.
func (ds *daemonSurface) handleXdgSurfaceConfigure(c *conn, serial uint32) error {
	if err := c.send(ds.xdgSurf, opXdgSurfaceAckConfigure, encodeUint32(serial)); err != nil {
		return err
	}
	if !ds.mapped {
		return ds.attach(c)
	}
	return nil
}

func (ds *daemonSurface) destroy(c *conn) {
	_ = c.send(ds.xdgTop, opBufferDestroy, nil)
	_ = c.send(ds.xdgSurf, opBufferDestroy, nil)
	_ = c.send(ds.surface, opSurfaceDestroy, nil)
	_ = c.send(ds.buffer, opBufferDestroy, nil)
}
