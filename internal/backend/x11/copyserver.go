package x11

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/copyserver"
)

// inactivityTimeout bounds how long a detached copy-clipboard child keeps
// serving once nobody has converted the selection, matching the original
// Wayland monitor's own idle shutdown guard.
const inactivityTimeout = 50 * time.Second

// CopyClipboard claims CLIPBOARD ownership via the detach hand-off in
// internal/copyserver: the real claim happens in a re-exec'd child (see
// ServeCopyClipboardChild), not in this process. This process only spawns
// it and waits for a readiness signal.
func (b *Backend) CopyClipboard(ctx context.Context, data []byte) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("x11: resolve executable: %w", err)
	}
	payload, err := copyserver.WritePayload(data)
	if err != nil {
		return err
	}
	cacheDir := ""
	if b.store != nil {
		cacheDir = b.store.Dir()
	}
	return copyserver.Launch(copyserver.LaunchConfig{
		Executable:  exe,
		Args:        []string{cacheDir},
		PayloadPath: payload,
	})
}

// ServeCopyClipboardChild is invoked from the re-exec'd detached process
// (cmd/zes's --internal-copy-serve dispatch). It claims CLIPBOARD
// ownership, verifies the claim stuck, signals readiness on fd 3, and then
// serves SelectionRequest events until displaced, cancelled, or idle.
func (b *Backend) ServeCopyClipboardChild(ctx context.Context, data []byte) error {
	if err := xproto.SetSelectionOwnerChecked(b.conn, b.win, b.atoms.clipboard, xproto.TimeCurrentTime).Check(); err != nil {
		copyserver.SignalReady(false)
		return fmt.Errorf("x11: claim clipboard ownership: %w", err)
	}

	owner, err := xproto.GetSelectionOwner(b.conn, b.atoms.clipboard).Reply()
	if err != nil || owner == nil || owner.Owner != b.win {
		copyserver.SignalReady(false)
		return fmt.Errorf("x11: clipboard ownership did not stick")
	}
	copyserver.SignalReady(true)
	b.log.Info("copy-clipboard server claimed ownership", zap.Int("bytes", len(data)))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ev, waitErr := b.waitEventTimeout(inactivityTimeout)
		if waitErr != nil {
			return fmt.Errorf("x11: copy-clipboard event loop: %w", waitErr)
		}
		if ev == nil {
			b.log.Info("copy-clipboard server idle timeout, exiting")
			return nil
		}

		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			if e.Selection != b.atoms.clipboard {
				continue
			}
			b.replySelectionRequest(e, data)
		case xproto.SelectionClearEvent:
			if e.Selection == b.atoms.clipboard {
				b.log.Info("copy-clipboard ownership displaced, exiting")
				return nil
			}
		}
	}
}

// waitEventTimeout blocks for at most d waiting for the next X event,
// returning (nil, nil) on timeout. xgb has no native deadline on
// WaitForEvent, so this runs it in a goroutine and races it against a timer;
// on timeout the goroutine is abandoned (the connection is closed on the
// caller's eventual Close, which unblocks it).
func (b *Backend) waitEventTimeout(d time.Duration) (interface{}, error) {
	type result struct {
		ev  interface{}
		err error
	}
	out := make(chan result, 1)
	go func() {
		ev, err := b.conn.WaitForEvent()
		out <- result{ev: ev, err: err}
	}()

	select {
	case r := <-out:
		return r.ev, r.err
	case <-time.After(d):
		return nil, nil
	}
}

func (b *Backend) replySelectionRequest(e xproto.SelectionRequestEvent, data []byte) {
	property := e.Property
	if property == 0 {
		property = e.Target
	}

	var (
		targetType xproto.Atom
		payload    []byte
		format     byte = 8
	)

	switch e.Target {
	case b.atoms.targets:
		targets := []xproto.Atom{b.atoms.targets, b.atoms.utf8, xproto.AtomString}
		buf := make([]byte, len(targets)*4)
		for i, a := range targets {
			buf[i*4] = byte(a)
			buf[i*4+1] = byte(a >> 8)
			buf[i*4+2] = byte(a >> 16)
			buf[i*4+3] = byte(a >> 24)
		}
		payload, targetType, format = buf, xproto.AtomAtom, 32
	case b.atoms.utf8, xproto.AtomString:
		payload, targetType = data, e.Target
	default:
		property = 0
	}

	if property != 0 {
		var length uint32
		if format == 32 {
			length = uint32(len(payload) / 4)
		} else {
			length = uint32(len(payload))
		}
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, property, targetType, format, length, payload)
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(b.conn, false, e.Requestor, 0, string(notify.Bytes()))
}
