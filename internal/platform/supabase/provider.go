package supabase

import (
	"net/http"
	"sync"

	"github.com/fieldcrew/crew-tracker-api/internal/platform/config"
)

// Provider lazily builds the two client handles for a project:
//   - Restricted authenticates with the anonymous key (row-level security applies)
//   - Privileged authenticates with the service-role key (identity admin, bypasses RLS)
//
// Each handle is built at most once and then shared by all requests.
type Provider struct {
	cfg        config.PlatformConfig
	httpClient *http.Client

	restrictedOnce sync.Once
	restricted     *Client
	restrictedErr  error

	privilegedOnce sync.Once
	privileged     *Client
	privilegedErr  error
}

// NewProvider returns a Provider; no network or validation happens until a client is requested.
func NewProvider(cfg config.PlatformConfig, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Provider{cfg: cfg, httpClient: httpClient}
}

// Restricted returns the anonymous-key client.
func (p *Provider) Restricted() (*Client, error) {
	p.restrictedOnce.Do(func() {
		p.restricted, p.restrictedErr = NewClient(p.cfg.URL, p.cfg.AnonKey, WithHTTPClient(p.httpClient))
	})
	return p.restricted, p.restrictedErr
}

// Privileged returns the service-role client.
func (p *Provider) Privileged() (*Client, error) {
	p.privilegedOnce.Do(func() {
		p.privileged, p.privilegedErr = NewClient(p.cfg.URL, p.cfg.ServiceKey, WithHTTPClient(p.httpClient))
	})
	return p.privileged, p.privilegedErr
}

// Source picks one of the Provider's handles. Adapters take a Source so the same
// repository code can run with either credential.
type Source func() (*Client, error)

// RestrictedSource adapts p.Restricted to a Source.
func (p *Provider) RestrictedSource() Source { return p.Restricted }

// PrivilegedSource adapts p.Privileged to a Source.
func (p *Provider) PrivilegedSource() Source { return p.Privileged }
