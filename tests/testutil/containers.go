package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
)

// sharedContainer запускает контейнер один раз на весь тестовый бинарник.
type sharedContainer struct {
	request testcontainers.ContainerRequest
	port    nat.Port
	reuse   bool

	once sync.Once
	addr string
	err  error
}

// address returns host:port of the mapped port, starting the container on first use.
func (s *sharedContainer) address(ctx context.Context) (string, error) {
	s.once.Do(func() {
		s.addr, s.err = s.start(ctx)
	})
	return s.addr, s.err
}

func (s *sharedContainer) start(ctx context.Context) (string, error) {
	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: s.request,
		Started:          true,
		Reuse:            s.reuse,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s: %w", s.request.Image, err)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get %s host: %w", s.request.Image, err)
	}
	port, err := cont.MappedPort(ctx, s.port)
	if err != nil {
		return "", fmt.Errorf("failed to get %s port: %w", s.request.Image, err)
	}
	return net.JoinHostPort(host, port.Port()), nil
}

// limitMemory caps container memory; swap is disabled with the same limit.
func limitMemory(bytes int64) func(*container.HostConfig) {
	return func(hc *container.HostConfig) {
		hc.Memory = bytes
		hc.MemorySwap = bytes
	}
}

// requireDocker skips container-backed tests under -short.
func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
}
