// Package wayland implements the Backend contract over
// primary-selection-unstable-v1 and wl_data_device, using a hand-rolled
// raw-socket Wayland wire client (no cgo, no libwayland-client linkage).
//
// No pure-Go Wayland protocol library exists anywhere in the reference
// corpus: every binding is either a cgo wrapper around libwayland-client or
// a minimal raw-socket client reimplementing the wire format directly. This
// package follows the latter, already-idiomatic-in-the-corpus shape
// (grounded on a wlr-data-control raw-socket client), generalized to bind
// the additional globals primary-selection and xdg-shell surface creation
// require. See DESIGN.md for the full justification.
package wayland

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var le = binary.LittleEndian

// conn is a buffered Wayland client connection over a Unix domain socket.
type conn struct {
	fd         int
	inBuf      []byte
	pendingFds []int
}

// socketPath resolves $XDG_RUNTIME_DIR/$WAYLAND_DISPLAY, defaulting the
// display name to "wayland-0" as libwayland-client itself does.
func socketPath() (string, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	return filepath.Join(runtime, display), nil
}

func dial() (*conn, error) {
	path, err := socketPath()
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("wayland: socket: %w", err)
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	unix.Close(c.fd)
}

// rawFd returns the raw socket fd, for poll-based waits in daemon.go.
func (c *conn) rawFd() int { return c.fd }

// send writes a Wayland request: object id, opcode|size header, then args.
func (c *conn) send(objectID uint32, opcode uint16, args []byte) error {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], objectID)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)
	_, err := unix.Write(c.fd, buf)
	if err != nil {
		return fmt.Errorf("wayland: write: %w", err)
	}
	return nil
}

// sendFd writes a request carrying a file descriptor via SCM_RIGHTS (used
// by wl_shm.create_pool and the offer receive requests).
func (c *conn) sendFd(objectID uint32, opcode uint16, args []byte, fd int) error {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], objectID)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)
	rights := unix.UnixRights(fd)
	return unix.Sendmsg(c.fd, buf, rights, nil, 0)
}

// event is one decoded Wayland event: object id, opcode, argument payload,
// and an optional fd delivered alongside it via SCM_RIGHTS (-1 if none).
type event struct {
	objectID uint32
	opcode   uint16
	payload  []byte
	fd       int
}

// readEvent blocks until one complete event is available on the socket.
func (c *conn) readEvent() (event, error) {
	for {
		if len(c.inBuf) >= 8 {
			sizeOpcode := le.Uint32(c.inBuf[4:8])
			size := int(sizeOpcode >> 16)
			if size >= 8 && len(c.inBuf) >= size {
				ev := event{
					objectID: le.Uint32(c.inBuf[0:4]),
					opcode:   uint16(sizeOpcode & 0xffff),
					payload:  append([]byte(nil), c.inBuf[8:size]...),
					fd:       -1,
				}
				c.inBuf = c.inBuf[size:]
				if len(c.pendingFds) > 0 {
					ev.fd = c.pendingFds[0]
					c.pendingFds = c.pendingFds[1:]
				}
				return ev, nil
			}
		}

		buf := make([]byte, 4096)
		oob := make([]byte, unix.CmsgSpace(4*8))
		n, oobn, _, _, err := unix.Recvmsg(c.fd, buf, oob, 0)
		if err != nil {
			return event{}, fmt.Errorf("wayland: recvmsg: %w", err)
		}
		if n == 0 {
			return event{}, fmt.Errorf("wayland: connection closed")
		}
		c.inBuf = append(c.inBuf, buf[:n]...)

		if oobn > 0 {
			scms, err := unix.ParseSocketControlMessage(oob[:oobn])
			if err == nil {
				for _, scm := range scms {
					rights, err := unix.ParseUnixRights(&scm)
					if err == nil {
						c.pendingFds = append(c.pendingFds, rights...)
					}
				}
			}
		}
	}
}

// pollReadable waits up to timeoutMs for the socket to become readable.
// timeoutMs < 0 blocks indefinitely; 0 polls once without blocking.
func (c *conn) pollReadable(timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("wayland: poll: %w", err)
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}
