//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd && !rumprun

package reuseport

import (
	"fmt"
	"net"
)

// Listen always returns ErrNoReusePort on unsupported platforms.
func Listen(network, addr string) (net.Listener, error) {
	return nil, &ErrNoReusePort{fmt.Errorf("SO_REUSEPORT is not supported on this platform")}
}
