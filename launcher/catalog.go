// Package launcher implements the storefront-facing collaborators that
// sit outside the manifest core: OAuth token exchange, catalog/manifest
// info lookup, and an HTTP-backed chunkio.Fetcher.
package launcher

import (
	"encoding/json"
	"net/url"
)

// Catalog is a storefront asset catalog response: a list of build
// elements, each offering one or more manifest download locations.
type Catalog struct {
	Elements []CatalogElement `json:"elements"`
}

type CatalogElement struct {
	AppName      string           `json:"appName"`
	LabelName    string           `json:"labelName"`
	BuildVersion string           `json:"buildVersion"`
	Hash         string           `json:"hash"`
	Manifests    []CatalogManifest `json:"manifests"`
}

type CatalogManifest struct {
	URI         string       `json:"uri"`
	QueryParams []QueryParam `json:"queryParams,omitempty"`
}

type QueryParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseCatalog decodes a catalog JSON response.
func ParseCatalog(data []byte) (*Catalog, error) {
	catalog := new(Catalog)
	if err := json.Unmarshal(data, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// ManifestInfo is the resolved location of a manifest file: a URL to
// download it from, plus the file name implied by its final path
// segment.
type ManifestInfo struct {
	URL      string
	FileName string
}

// ResolveManifestURL picks a manifest location out of the catalog's
// first element: the first option, in order, that carries zero or
// exactly one query parameter. A single parameter is added to the URI's
// query. Options with more than one query parameter are skipped, as
// they have no documented composition rule.
func (c *Catalog) ResolveManifestURL() (*ManifestInfo, error) {
	if len(c.Elements) == 0 {
		return nil, errNoElements
	}

	for _, m := range c.Elements[0].Manifests {
		switch len(m.QueryParams) {
		case 0:
			return newManifestInfo(m.URI)
		case 1:
			u, err := url.Parse(m.URI)
			if err != nil {
				continue
			}
			query := u.Query()
			query.Set(m.QueryParams[0].Name, m.QueryParams[0].Value)
			u.RawQuery = query.Encode()
			return newManifestInfo(u.String())
		default:
			continue
		}
	}

	return nil, errNoUsableManifest
}

func newManifestInfo(rawURL string) (*ManifestInfo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	fileName := u.Path
	if idx := lastSlash(fileName); idx >= 0 {
		fileName = fileName[idx+1:]
	}
	return &ManifestInfo{URL: rawURL, FileName: fileName}, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
