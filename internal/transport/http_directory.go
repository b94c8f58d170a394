package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"qiyas/internal/domain"
)

// HTTPDirectory resolves a fingerprint to its published pre-key bundle
// against a directory service reachable over HTTP. The directory is
// untrusted (§6): authenticity rests entirely on the signature inside the
// returned bundle, which callers must still verify.
type HTTPDirectory struct {
	base   string
	client *http.Client
}

// NewHTTPDirectory constructs a directory client against base, using client
// for outbound requests (or http.DefaultClient if nil).
func NewHTTPDirectory(base string, client *http.Client) *HTTPDirectory {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDirectory{base: base, client: client}
}

// FetchBundle looks up the bundle currently published for fingerprint.
func (d *HTTPDirectory) FetchBundle(ctx context.Context, fingerprint domain.Fingerprint) (domain.PreKeyBundle, error) {
	endpoint := fmt.Sprintf("%s/directory/%s", d.base, url.PathEscape(fingerprint.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PreKeyBundle{}, fmt.Errorf("transport: directory lookup for %s: status %d", fingerprint, resp.StatusCode)
	}

	var bundle domain.PreKeyBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return bundle, nil
}

var _ domain.Directory = (*HTTPDirectory)(nil)
