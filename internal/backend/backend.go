// Package backend defines the shared contract every display-system backend
// (X11, XWayland, Wayland) implements, plus the size/MIME bookkeeping spec.md
// §4 and §5 hardcode.
package backend

import "context"

// Default size caps, overridable via internal/zesconfig.
const (
	DefaultMaxSelectionSize = 1 << 20 // 1 MiB, spec.md §4
	DefaultMaxClipboardSize = 4 << 20 // 4 MiB, spec.md §5
)

// AcceptedMimeTypes lists the text MIME types a reader accepts: an offer
// advertising any of them is treated as carrying text. Image and rich-text
// formats are explicitly out of scope (Non-goals).
var AcceptedMimeTypes = []string{
	"text/plain;charset=utf-8",
	"UTF8_STRING",
	"text/plain",
	"STRING",
	"TEXT",
}

// Truncate clamps data to max bytes, matching spec.md's B2 boundary: a
// selection or clipboard payload larger than the cap is silently truncated,
// never rejected.
func Truncate(data []byte, max int) []byte {
	if max <= 0 || len(data) <= max {
		return data
	}
	return data[:max]
}

// Backend is the operation surface every display-system implementation
// exposes. Each operation maps 1:1 onto a CLI mode in spec.md §6.
type Backend interface {
	// Daemon runs the persistent monitor loop until ctx is cancelled or an
	// unrecoverable error occurs (spec.md §4, state machine RUNNING).
	Daemon(ctx context.Context) error

	// OneShot reads the current PRIMARY selection once, publishes it, and
	// returns. The bool reports whether a selection owner was found at all.
	OneShot(ctx context.Context) (data []byte, ok bool, err error)

	// GetClipboard reads the current CLIPBOARD selection once and returns
	// its content without publishing to the rendezvous files.
	GetClipboard(ctx context.Context) ([]byte, error)

	// CopyClipboard claims CLIPBOARD ownership and serves it to other
	// clients, detaching per the copy-clipboard hand-off (spec.md §6.3).
	CopyClipboard(ctx context.Context, data []byte) error

	// ClearPrimary asks the display server to set the PRIMARY selection to
	// no owner, whichever client currently holds it. The Wayland backend
	// returns an error when the compositor lacks primary-selection support.
	ClearPrimary(ctx context.Context) error

	// Close releases any held connection resources.
	Close() error
}
