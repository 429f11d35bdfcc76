package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"

	"gobdc/protocol"
)

// Advertise registers the status server as an mDNS service and blocks
// until ctx is done.
func Advertise(ctx context.Context, log *slog.Logger, name string, port int) error {
	txt := []string{
		fmt.Sprintf("protocol=%d", protocol.Version),
		"path=/api/status",
		"ws=/ws",
	}
	server, err := zeroconf.Register(name, "_http._tcp", "local.", port, txt, nil)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	log.Info("zeroconf: registered", "name", name, "port", port)

	<-ctx.Done()
	server.Shutdown()
	log.Info("zeroconf: unregistered")
	return nil
}
