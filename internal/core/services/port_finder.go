package services

import (
	"fmt"
	"net"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Default port range searched when the MCP server runs over HTTP
// without an explicit port.
const (
	DefaultPortRangeStart = 8765
	DefaultPortRangeEnd   = 8784
)

// FindAvailablePort returns the first port in [startPort, endPort] that
// accepts a listener on the loopback interface.
func FindAvailablePort(startPort, endPort int) (int, error) {
	if startPort < 1 || endPort > 65535 || startPort > endPort {
		return 0, fmt.Errorf("%w: port range %d-%d", domain.ErrInvalidInput, startPort, endPort)
	}
	for port := startPort; port <= endPort; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}
