//go:build unix && !(linux || freebsd || netbsd || openbsd || dragonfly || solaris)

package sock

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// socket opens a descriptor and marks it close-on-exec.  These systems
// have no SOCK_CLOEXEC, so ForkLock keeps a concurrent fork from
// inheriting it in between.
func socket(domain, typ, proto int) (int, error) {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return -1, err
	}
	unix.CloseOnExec(fd)
	return fd, nil
}
