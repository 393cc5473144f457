package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultAddress is the databroker address used when none is configured.
const DefaultAddress = "127.0.0.1:55555"

// Endpoint is the host and port of a databroker.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint resolves a "host:port" address. IPv6 hosts must be
// bracketed ("[::1]:55555"). A leading "//" is tolerated.
func ParseEndpoint(addr string) (Endpoint, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(addr), "//")
	if trimmed == "" {
		return Endpoint{}, fmt.Errorf("empty address: %w", ErrInvalidAddress)
	}

	host, portStr, err := net.SplitHostPort(trimmed)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%q: %v: %w", addr, err, ErrInvalidAddress)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("%q: missing host: %w", addr, ErrInvalidAddress)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%q: invalid port %q: %w", addr, portStr, ErrInvalidAddress)
	}
	if port < 1 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%q: port %d out of range: %w", addr, port, ErrInvalidAddress)
	}

	return Endpoint{Host: host, Port: port}, nil
}
