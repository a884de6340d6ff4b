// Package x11 implements the Backend contract over plain X11 (both
// x11-native and xwayland-tunnelled sessions), using the pure-Go
// github.com/BurntSushi/xgb client — no cgo, no libX11/libXfixes linkage.
package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/rendezvous"
)

// Backend holds one X11 connection and its unmapped 1x1 input-output window, used for
// both selection conversion and (in the XFixes daemon case) owner-change
// notification.
type Backend struct {
	conn   *xgb.Conn
	win    xproto.Window
	atoms  atomSet
	store  *rendezvous.Store
	log    *zap.Logger
	closed chan struct{}

	maxSelSize  int
	maxClipSize int
	backoff     []backoffStage
}

// Backoff mirrors zesconfig.Backoff without importing it directly, so this
// package stays free of a dependency on the config file's YAML tags.
type Backoff struct {
	FastIterations int
	FastDelayUs    int
	MidIterations  int
	MidDelayUs     int
	SlowIterations int
	SlowDelayUs    int
}

// schedule converts a Backoff into the staged poll schedule readSelection
// consumes, falling back to the built-in default when the caller passed a
// zero-value Backoff (a Config built without one; zesconfig.Default always
// fills in the backoff fields).
func (bo Backoff) schedule() []backoffStage {
	if bo == (Backoff{}) {
		return defaultBackoffSchedule()
	}
	return []backoffStage{
		{bo.FastIterations, time.Duration(bo.FastDelayUs) * time.Microsecond},
		{bo.MidIterations, time.Duration(bo.MidDelayUs) * time.Microsecond},
		{bo.SlowIterations, time.Duration(bo.SlowDelayUs) * time.Microsecond},
	}
}

// Config carries the tunables the caller resolved from zesconfig.
type Config struct {
	Store            *rendezvous.Store
	Logger           *zap.Logger
	MaxSelectionSize int
	MaxClipboardSize int
	Backoff          Backoff
}

// New connects to the X server named by DISPLAY and prepares the window and
// atoms this backend needs for every operation.
func New(cfg Config) (*Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: allocate window id: %w", err)
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(
		conn, screen.RootDepth, win, screen.Root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{eventMask},
	).Check(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: create window: %w", err)
	}

	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		conn.Close()
		return nil, err
	}

	return &Backend{
		conn:        conn,
		win:         win,
		atoms:       atoms,
		store:       cfg.Store,
		log:         cfg.Logger,
		closed:      make(chan struct{}),
		maxSelSize:  cfg.MaxSelectionSize,
		maxClipSize: cfg.MaxClipboardSize,
		backoff:     cfg.Backoff.schedule(),
	}, nil
}

// Close releases the window and connection.
func (b *Backend) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	xproto.DestroyWindow(b.conn, b.win)
	b.conn.Close()
	return nil
}
