package wayland

import "golang.org/x/sys/unix"

func closeFd(fd int) {
	_ = unix.Close(fd)
}

func writeFd(fd int, data []byte) (int, error) {
	return unix.Write(fd, data)
}
