package wayland

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/copyserver"
)

// inactivityTimeout bounds how long a detached copy-clipboard child keeps
// serving once nobody has converted the selection.
const inactivityTimeout = 50 * time.Second

// CopyClipboard hands off to the detach re-exec in internal/copyserver: the
// real wl_data_source claim happens in the re-exec'd child
// (ServeCopyClipboardChild), which gets a fresh connection of its own
// (Wayland, like X11, has no way to hand an in-flight protocol connection
// to a forked child without redoing the handshake).
func (b *Backend) CopyClipboard(ctx context.Context, data []byte) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("wayland: resolve executable: %w", err)
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

// ServeCopyClipboardChild creates a wl_data_source offering text/plain
// variants, claims CLIPBOARD ownership via wl_data_device.set_selection,
// signals readiness, and serves send requests until cancelled or idle.
func (b *Backend) ServeCopyClipboardChild(ctx context.Context, data []byte) error {
	if err := b.c.send(idDDManager, opDDMCreateSource, encodeUint32(idDataSource)); err != nil {
		copyserver.SignalReady(false)
		return fmt.Errorf("wayland: create data source: %w", err)
	}
	for _, mime := range []string{"text/plain;charset=utf-8", "text/plain", "UTF8_STRING", "STRING"} {
		if err := b.c.send(idDataSource, opDataSourceOffer, encodeString(mime)); err != nil {
			copyserver.SignalReady(false)
			return fmt.Errorf("wayland: offer %s: %w", mime, err)
		}
	}
	if err := b.c.send(idDataDevice, opDataDeviceSetSelection, concat(encodeUint32(idDataSource), encodeUint32(0))); err != nil {
		copyserver.SignalReady(false)
		return fmt.Errorf("wayland: set_selection: %w", err)
	}

	if err := b.drainFor(roundtripWindow); err != nil {
		copyserver.SignalReady(false)
		return fmt.Errorf("wayland: confirm ownership: %w", err)
	}
	copyserver.SignalReady(true)
	b.log.Info("copy-clipboard server claimed ownership", zap.Int("bytes", len(data)))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		readable, err := b.c.pollReadable(int(inactivityTimeout.Milliseconds()))
		if err != nil {
			return fmt.Errorf("wayland: copy-clipboard poll: %w", err)
		}
		if !readable {
			b.log.Info("copy-clipboard server idle timeout, exiting")
			return nil
		}

		ev, err := b.c.readEvent()
		if err != nil {
			return fmt.Errorf("wayland: copy-clipboard read: %w", err)
		}

		if ev.objectID != idDataSource {
			if ev.fd >= 0 {
				closeFd(ev.fd)
			}
			b.dispatch(ev)
			continue
		}

		switch ev.opcode {
		case evDataSourceSend:
			if ev.fd < 0 {
				continue
			}
			_, _ = writeAll(ev.fd, data)
			closeFd(ev.fd)
		case evDataSourceCancelled:
			b.log.Info("copy-clipboard ownership displaced, exiting")
			return nil
		}
	}
}

func writeAll(fd int, data []byte) (int, error) {
	total := 0
	for total < len(data) {
		n, err := writeFd(fd, data[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}
