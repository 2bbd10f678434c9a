package gateway

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/entities"
	"go.uber.org/zap"
)

// Factory builds the gateway for one organization.
type Factory func(org entities.Organization) (Gateway, error)

type OrganizationFinder interface {
	FindOrganization(ctx context.Context, id uint) (entities.Organization, error)
}

// Registry caches one Gateway per organization. Entries live until
// Invalidate is called, which must happen whenever credentials change.
type Registry struct {
	mu          sync.RWMutex
	clients     map[uint]Gateway
	generations map[uint]uint64
	orgs        OrganizationFinder
	factory     Factory
}

func NewRegistry(orgs OrganizationFinder, factory Factory) *Registry {
	return &Registry{
		clients:     make(map[uint]Gateway),
		generations: make(map[uint]uint64),
		orgs:        orgs,
		factory:     factory,
	}
}

// For returns the cached gateway of orgID, building it on first use. An
// organization loaded before a concurrent Invalidate is discarded and read
// again, so stale credentials are never cached.
func (r *Registry) For(ctx context.Context, orgID uint) (Gateway, error) {
	for {
		r.mu.RLock()
		gw, ok := r.clients[orgID]
		generation := r.generations[orgID]
		r.mu.RUnlock()
		if ok {
			return gw, nil
		}

		org, err := r.orgs.FindOrganization(ctx, orgID)
		if err != nil {
			return nil, err
		}

		gw, retry, err := r.store(orgID, generation, org)
		if retry {
			continue
		}
		return gw, err
	}
}

func (r *Registry) store(orgID uint, generation uint64, org entities.Organization) (Gateway, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gw, ok := r.clients[orgID]; ok {
		return gw, false, nil
	}
	if r.generations[orgID] != generation {
		return nil, true, nil
	}
	gw, err := r.factory(org)
	if err != nil {
		return nil, false, err
	}
	r.clients[orgID] = gw
	return gw, false, nil
}

func (r *Registry) Invalidate(orgID uint) {
	r.mu.Lock()
	gw, ok := r.clients[orgID]
	delete(r.clients, orgID)
	r.generations[orgID]++
	r.mu.Unlock()

	if !ok {
		return
	}
	if closer, ok := gw.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			zap.L().Warn("closing gateway failed", zap.Uint("organization_id", orgID), zap.Error(err))
		}
	}
	zap.L().Info("gateway credentials invalidated", zap.Uint("organization_id", orgID))
}

// Close releases every cached gateway.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]uint, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Invalidate(id)
	}
}

// RemoteFactory builds HTTP clients from the organization's credentials,
// falling back to the configured defaults field by field.
func RemoteFactory(cfg config.Gateway) Factory {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return func(org entities.Organization) (Gateway, error) {
		org.GatewayBaseURL = firstNonEmpty(org.GatewayBaseURL, cfg.BaseURL)
		org.GatewayInstanceID = firstNonEmpty(org.GatewayInstanceID, cfg.InstanceID)
		org.GatewayToken = firstNonEmpty(org.GatewayToken, cfg.Token)
		org.GatewayClientToken = firstNonEmpty(org.GatewayClientToken, cfg.ClientToken)
		if !org.HasGatewayCredentials() {
			return nil, ErrNotConfigured
		}
		return NewClient(Credentials{
			BaseURL:     org.GatewayBaseURL,
			InstanceID:  org.GatewayInstanceID,
			Token:       org.GatewayToken,
			ClientToken: org.GatewayClientToken,
		}, httpClient), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
