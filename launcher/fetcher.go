package launcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher implements chunkio.Fetcher and manifest/catalog retrieval
// over a plain *http.Client.
type HTTPFetcher struct {
	HTTPClient *http.Client
	UserAgent  string

	// BearerToken, if set, is sent as an Authorization header on every
	// request. Assign it after Authenticator.Authenticate succeeds.
	BearerToken string
}

// NewHTTPFetcher builds an HTTPFetcher. If client is nil,
// http.DefaultClient is used.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{HTTPClient: client}
}

// Fetch retrieves uri's full body. It satisfies chunkio.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	f.applyHeaders(req)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("launcher: GET %s returned status %d", uri, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FetchCatalog retrieves and parses the storefront catalog for a given
// platform/namespace/catalogItem/app/label tuple.
func (f *HTTPFetcher) FetchCatalog(ctx context.Context, baseURL, platform, namespace, item, app, label string) (*Catalog, error) {
	uri := fmt.Sprintf("%s/launcher/api/public/assets/v2/platform/%s/namespace/%s/catalogItem/%s/app/%s/label/%s",
		baseURL, platform, namespace, item, app, label)

	data, err := f.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func (f *HTTPFetcher) applyHeaders(req *http.Request) {
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if f.BearerToken != "" {
		req.Header.Set("Authorization", "bearer "+f.BearerToken)
	}
}
