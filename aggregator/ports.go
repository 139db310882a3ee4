package aggregator

import (
	"fmt"
	"net"
)

// FreePorts returns n distinct TCP ports that were free on the loopback
// interface when probed. All listeners stay open until every port is
// chosen so the kernel cannot hand out the same port twice. Nothing keeps
// the ports reserved afterwards.
func FreePorts(n int) ([]int, error) {
	listeners := make([]net.Listener, 0, n)
	defer func() {
		for _, l := range listeners {
			_ = l.Close()
		}
	}()

	ports := make([]int, 0, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("aggregator: allocating port %d of %d: %w", i+1, n, err)
		}
		listeners = append(listeners, l)
		ports = append(ports, l.Addr().(*net.TCPAddr).Port)
	}
	return ports, nil
}
