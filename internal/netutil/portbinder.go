// Package netutil holds listener and network error helpers for the cmdq
// daemon.
//
// The API server binds its listener once through BindTCP and serves on it
// directly, so a port can never be taken between a bind check and the real
// bind.
package netutil

import (
	"fmt"
	"net"
	"strconv"
)

// AddressInUseError is returned by BindTCP when the port is taken. It wraps
// the original error for errors.Is and errors.As.
type AddressInUseError struct {
	Port    int
	Address string
	Err     error
}

func (e *AddressInUseError) Error() string {
	return fmt.Sprintf("port %d is already in use on %s", e.Port, e.Address)
}

func (e *AddressInUseError) Unwrap() error {
	return e.Err
}

// BindTCP binds a TCP listener on address:port and returns it still open.
// IPv6 addresses are accepted. Port 0 asks the OS for a free port; use
// ListenerPort to find out which.
func BindTCP(address string, port int) (net.Listener, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if IsAddressInUseError(err) {
			return nil, &AddressInUseError{
				Port:    port,
				Address: address,
				Err:     err,
			}
		}
		return nil, fmt.Errorf("failed to bind TCP to %s: %w", addr, err)
	}

	return listener, nil
}

// ListenerPort returns the port a TCP listener is bound to
func ListenerPort(listener net.Listener) (int, error) {
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("listener is not a TCP listener: %T", listener.Addr())
	}
	return tcpAddr.Port, nil
}
