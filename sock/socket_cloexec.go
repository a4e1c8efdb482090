//go:build linux || freebsd || netbsd || openbsd || dragonfly || solaris

package sock

import "golang.org/x/sys/unix"

// socket opens a descriptor that is close-on-exec from creation.
func socket(domain, typ, proto int) (int, error) {
	return unix.Socket(domain, typ|unix.SOCK_CLOEXEC, proto)
}
