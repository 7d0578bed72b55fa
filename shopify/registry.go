package shopify

import (
	"context"
	"sync"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode060401 = e.Code0604 + "01"
)

// StoreCredentials the domain and Admin API token for one store
type StoreCredentials struct {
	Domain      string `json:"domain"`
	AccessToken string `json:"accessToken"`
}

// CredentialSource provides the API credentials for a store key
type CredentialSource interface {
	StoreCredentials(ctx context.Context, storeKey string) (*StoreCredentials, error)
}

// Registry hands out per store clients, creating each one the first
// time its store key is requested
type Registry struct {
	source  CredentialSource
	version string
	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry returns a new registry backed by the credential source
func NewRegistry(source CredentialSource) (r *Registry) {
	return &Registry{
		source:  source,
		clients: map[string]*Client{},
	}
}

// SetVersion overrides the API version on clients the registry
// creates. Does not affect clients already handed out
func (r *Registry) SetVersion(version string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.version = version
}

// Client returns the client for the store key
func (r *Registry) Client(ctx context.Context, storeKey string) (c *Client, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[storeKey]; ok {
		return c, nil
	}

	creds, err := r.source.StoreCredentials(ctx, storeKey)
	if err != nil {
		return nil, e.W(err, ECode060401, storeKey)
	}

	c = NewClient(creds.Domain, creds.AccessToken)
	if r.version != "" {
		c.SetVersion(r.version)
	}
	r.clients[storeKey] = c

	return c, nil
}
