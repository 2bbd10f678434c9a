package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/entities"
)

type orgFinder map[uint]entities.Organization

func (f orgFinder) FindOrganization(_ context.Context, id uint) (entities.Organization, error) {
	org, ok := f[id]
	if !ok {
		return entities.Organization{}, errors.New("organization not found")
	}
	return org, nil
}

type closingGateway struct {
	*Client
	closed bool
}

func (g *closingGateway) Close() error {
	g.closed = true
	return nil
}

func TestRegistry_CachesPerOrganizationUntilInvalidated(t *testing.T) {
	orgs := orgFinder{}
	orgs[1] = entities.Organization{GatewayInstanceID: "a", GatewayToken: "t"}

	builds := 0
	var last *closingGateway
	registry := NewRegistry(orgs, func(org entities.Organization) (Gateway, error) {
		builds++
		last = &closingGateway{Client: NewClient(Credentials{InstanceID: org.GatewayInstanceID}, nil)}
		return last, nil
	})

	first, err := registry.For(context.Background(), 1)
	require.NoError(t, err)
	second, err := registry.For(context.Background(), 1)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)

	previous := last
	registry.Invalidate(1)
	assert.True(t, previous.closed)

	third, err := registry.For(context.Background(), 1)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, builds)
}

// pausingFinder blocks its first lookup until release is closed.
type pausingFinder struct {
	mu      sync.Mutex
	org     entities.Organization
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (f *pausingFinder) FindOrganization(context.Context, uint) (entities.Organization, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	org := f.org
	f.mu.Unlock()

	if first {
		close(f.entered)
		<-f.release
	}
	return org, nil
}

func (f *pausingFinder) set(org entities.Organization) {
	f.mu.Lock()
	f.org = org
	f.mu.Unlock()
}

func TestRegistry_InvalidateDuringLoadDropsStaleCredentials(t *testing.T) {
	finder := &pausingFinder{
		org:     entities.Organization{GatewayInstanceID: "old", GatewayToken: "t"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	registry := NewRegistry(finder, func(org entities.Organization) (Gateway, error) {
		return NewClient(Credentials{InstanceID: org.GatewayInstanceID, Token: org.GatewayToken}, nil), nil
	})

	type result struct {
		gw  Gateway
		err error
	}
	done := make(chan result, 1)
	go func() {
		gw, err := registry.For(context.Background(), 1)
		done <- result{gw, err}
	}()

	<-finder.entered
	finder.set(entities.Organization{GatewayInstanceID: "new", GatewayToken: "t"})
	registry.Invalidate(1)
	close(finder.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "new", res.gw.(*Client).InstanceID())

	cached, err := registry.For(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "new", cached.(*Client).InstanceID())
}

func TestRegistry_UnknownOrganization(t *testing.T) {
	registry := NewRegistry(orgFinder{}, func(entities.Organization) (Gateway, error) {
		t.Fatal("factory must not be called")
		return nil, nil
	})

	_, err := registry.For(context.Background(), 42)
	assert.Error(t, err)
}

func TestRemoteFactory_FallsBackToDefaults(t *testing.T) {
	factory := RemoteFactory(config.Gateway{BaseURL: "https://gw.example", InstanceID: "default", Token: "tok"})

	gw, err := factory(entities.Organization{GatewayInstanceID: "org-inst"})
	require.NoError(t, err)
	client, ok := gw.(*Client)
	require.True(t, ok)
	assert.Equal(t, "https://gw.example/instances/org-inst/token/tok/status", client.endpoint("status"))

	empty := RemoteFactory(config.Gateway{})
	_, err = empty(entities.Organization{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = empty(entities.Organization{GatewayToken: "tok"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
