package wayland

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/backend"
	"github.com/zsh-edit-select/zes/internal/rendezvous"
)

// Config carries the tunables the caller resolved from zesconfig.
type Config struct {
	Store            *rendezvous.Store
	Logger           *zap.Logger
	MaxSelectionSize int
	MaxClipboardSize int
}

// Backend implements the Backend contract over wl_data_device (CLIPBOARD)
// and, where the compositor supports it, zwp_primary_selection_device_v1
// (PRIMARY). On compositors lacking primary-selection-unstable-v1, PRIMARY
// operations return an error rather than silently degrading, since there is
// no X11-style fallback within the Wayland protocol itself.
type Backend struct {
	c   *conn
	g   globals
	log *zap.Logger

	store       *rendezvous.Store
	maxSelSize  int
	maxClipSize int

	mu sync.Mutex

	// generation counts offer announcements: every data_offer event bumps
	// it. No read consults it, so a read in flight is not checked against
	// a newer offer that replaced it mid-read.
	generation uint64

	nextOfferID uint32

	psOfferID uint32 // 0 = none
	psHasText bool

	clipOfferID uint32 // 0 = none
	clipHasText bool

	surface *daemonSurface
}

// New connects to the Wayland compositor and binds wl_data_device_manager,
// zwp_primary_selection_device_manager_v1 (if present), wl_compositor,
// wl_shm and xdg_wm_base.
func New(cfg Config) (*Backend, error) {
	c, g, err := connect()
	if err != nil {
		return nil, err
	}

	b := &Backend{
		c:           c,
		g:           g,
		log:         cfg.Logger,
		store:       cfg.Store,
		maxSelSize:  cfg.MaxSelectionSize,
		maxClipSize: cfg.MaxClipboardSize,
		nextOfferID: idOfferBase,
	}

	if err := c.send(idDDManager, opDDMGetDataDevice, concat(encodeUint32(idDataDevice), encodeUint32(idSeat))); err != nil {
		c.close()
		return nil, fmt.Errorf("wayland: get_data_device: %w", err)
	}

	if g.havePSManager {
		if err := c.send(idPSManager, opPSManagerGetDevice, concat(encodeUint32(idPSDevice), encodeUint32(idSeat))); err != nil {
			c.close()
			return nil, fmt.Errorf("wayland: primary selection get_device: %w", err)
		}
	}

	return b, nil
}

// Close releases the surface (if mapped) and the connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surface != nil {
		b.surface.destroy(b.c)
		b.surface = nil
	}
	b.c.close()
	return nil
}

func (b *Backend) hasPrimarySelection() bool { return b.g.havePSManager }

// dispatchResult reports which higher-level condition a dispatched event
// represents, so daemon.go/oneshot.go can react (re-read and publish)
// without wayland.go needing to know about rendezvous or sequence numbers.
type dispatchResult struct {
	handled            bool
	primarySelChanged  bool
	clipboardSelChanged bool
}

// dispatch handles the events common to every operation mode: new offer
// objects, mime-type announcements on them, selection changes, xdg_wm_base
// pings, and xdg_surface configure acks.
func (b *Backend) dispatch(ev event) dispatchResult {
	switch {
	case ev.objectID == idDataDevice && ev.opcode == evDataDeviceDataOffer:
		b.mu.Lock()
		b.clipOfferID = b.allocOfferLocked()
		b.clipHasText = false
		b.mu.Unlock()
		return dispatchResult{handled: true}

	case ev.objectID == idPSDevice && ev.opcode == evPSDeviceDataOffer:
		b.mu.Lock()
		b.psOfferID = b.allocOfferLocked()
		b.psHasText = false
		b.mu.Unlock()
		return dispatchResult{handled: true}

	case b.isOfferObject(ev.objectID) && ev.opcode == evDataOfferOffer:
		mime, _, err := decodeString(ev.payload)
		if err == nil && slices.Contains(backend.AcceptedMimeTypes, mime) {
			b.mu.Lock()
			if ev.objectID == b.clipOfferID {
				b.clipHasText = true
			}
			if ev.objectID == b.psOfferID {
				b.psHasText = true
			}
			b.mu.Unlock()
		}
		return dispatchResult{handled: true}

	case ev.objectID == idDataDevice && ev.opcode == evDataDeviceSelection:
		id, _, _ := decodeUint32(ev.payload)
		b.mu.Lock()
		if id == 0 {
			b.clipOfferID = 0
			b.clipHasText = false
		}
		b.mu.Unlock()
		return dispatchResult{handled: true, clipboardSelChanged: true}

	case ev.objectID == idPSDevice && ev.opcode == evPSDeviceSelection:
		id, _, _ := decodeUint32(ev.payload)
		b.mu.Lock()
		if id == 0 {
			b.psOfferID = 0
			b.psHasText = false
		}
		b.mu.Unlock()
		return dispatchResult{handled: true, primarySelChanged: true}

	case ev.objectID == idWmBase && ev.opcode == evWmBasePing:
		serial, _, _ := decodeUint32(ev.payload)
		_ = b.c.send(idWmBase, opWmBasePong, encodeUint32(serial))
		return dispatchResult{handled: true}

	case b.surface != nil && ev.objectID == b.surface.xdgSurf && ev.opcode == evXdgSurfaceConfigure:
		serial, _, _ := decodeUint32(ev.payload)
		_ = b.surface.handleXdgSurfaceConfigure(b.c, serial)
		return dispatchResult{handled: true}
	}
	return dispatchResult{}
}

// allocOfferLocked must be called with b.mu held.
func (b *Backend) allocOfferLocked() uint32 {
	id := b.nextOfferID
	b.nextOfferID++
	b.generation++
	return id
}

func (b *Backend) isOfferObject(id uint32) bool {
	return id >= idOfferBase && id < b.nextOfferID
}

// readCurrentPrimary reads the active PRIMARY offer's text content, or
// returns an empty slice if there is no owner or the offer has no text
// representation.
func (b *Backend) readCurrentPrimary() ([]byte, error) {
	b.mu.Lock()
	offerID, hasText := b.psOfferID, b.psHasText
	b.mu.Unlock()
	if offerID == 0 || !hasText {
		return []byte{}, nil
	}
	data, err := receivePrimary(b.c, offerID, b.maxSelSize)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// readCurrentClipboard reads the active CLIPBOARD offer's text content.
func (b *Backend) readCurrentClipboard() ([]byte, error) {
	b.mu.Lock()
	offerID, hasText := b.clipOfferID, b.clipHasText
	b.mu.Unlock()
	if offerID == 0 || !hasText {
		return []byte{}, nil
	}
	data, err := receiveClipboard(b.c, offerID, b.maxClipSize)
	if err != nil {
		return nil, err
	}
	return data, nil
}
