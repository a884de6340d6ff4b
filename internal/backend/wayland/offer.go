package wayland

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mimeTextPlain is the single MIME type this bridge ever requests — rich
// text and binary formats are out of scope (Non-goals).
const mimeTextPlain = "text/plain;charset=utf-8"

// receiveOffer asks the compositor to deliver offer's content over a pipe,
// writing it into the write end and reading the read end back here with a
// poll-based timeout: 500ms for the compositor to start writing, 100ms
// between subsequent reads once data is flowing. Mirrors
// read_fd_with_timeout/read_ps_offer/read_clip_offer in the original C.
func receiveOffer(receive func(writeFd int) error, maxSize int) ([]byte, error) {
	fds, err := unix.Pipe()
	if err != nil {
		return nil, fmt.Errorf("wayland: pipe: %w", err)
	}
	readFd, writeFd := fds[0], fds[1]

	if err := receive(writeFd); err != nil {
		closeFd(readFd)
		closeFd(writeFd)
		return nil, err
	}
	closeFd(writeFd)
	defer closeFd(readFd)

	if err := unix.SetNonblock(readFd, true); err != nil {
		return nil, fmt.Errorf("wayland: set nonblock: %w", err)
	}

	var buf []byte
	timeoutMs := 500
	for {
		fds := []unix.PollFd{{Fd: int32(readFd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, fmt.Errorf("wayland: poll pipe: %w", err)
		}
		if n <= 0 {
			break
		}
		revents := fds[0].Revents
		if revents&unix.POLLIN == 0 {
			break
		}
		chunk := make([]byte, 4096)
		r, err := unix.Read(readFd, chunk)
		if r > 0 {
			if len(buf)+r > maxSize {
				r = maxSize - len(buf)
				if r < 0 {
					r = 0
				}
			}
			buf = append(buf, chunk[:r]...)
			if len(buf) >= maxSize {
				break
			}
		}
		if r == 0 || err != nil {
			break
		}
		timeoutMs = 100
	}
	return buf, nil
}

// receivePrimary issues zwp_primary_selection_offer_v1.receive for offerID.
func receivePrimary(c *conn, offerID uint32, maxSize int) ([]byte, error) {
	return receiveOffer(func(writeFd int) error {
		return c.sendFd(offerID, opPSOfferReceive, encodeString(mimeTextPlain), writeFd)
	}, maxSize)
}

// receiveClipboard issues wl_data_offer.receive for offerID.
func receiveClipboard(c *conn, offerID uint32, maxSize int) ([]byte, error) {
	return receiveOffer(func(writeFd int) error {
		return c.sendFd(offerID, opDataOfferReceive, encodeString(mimeTextPlain), writeFd)
	}, maxSize)
}
