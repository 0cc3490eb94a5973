// Package validate provides network validation utilities for cmdq endpoints.
//
// Implements bind address and endpoint URL validation using the
// go-playground/validator library. The daemon validates its API bind address
// and the remote batch endpoint before any listener or transport is created.
package validate

import (
	"fmt"
	"net"
	"strconv"
)

// NetworkAddress is a validated "host:port" pair.
type NetworkAddress struct {
	Host string `validate:"required,ip"`
	Port int    `validate:"min=0,max=65535"`
}

// String returns the address in "host:port" form.
func (na NetworkAddress) String() string {
	return net.JoinHostPort(na.Host, strconv.Itoa(na.Port))
}

// ParseBindAddress parses and validates a "host:port" bind address. The host
// must be a literal IP; port 0 is accepted and left to the caller to reject.
func ParseBindAddress(addr string) (*NetworkAddress, error) {
	if addr == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address format '%s': %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s': %w", portStr, err)
	}

	netAddr := &NetworkAddress{
		Host: host,
		Port: port,
	}

	if err := validate.Struct(netAddr); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return netAddr, nil
}

// ValidateEndpointURL checks that endpoint is an absolute http(s) URL, as
// required by the HTTP transport.
func ValidateEndpointURL(endpoint string) error {
	if err := ValidateField(endpoint, "required,http_url"); err != nil {
		return fmt.Errorf("invalid endpoint URL '%s': must be an absolute http(s) URL", endpoint)
	}
	return nil
}
