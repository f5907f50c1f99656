package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ClientToken is an OAuth client-credentials pair, base64-packed the way
// the storefront's launcher clients present them over HTTP basic auth.
type ClientToken struct {
	AccountServiceURL string
	UserAgent         string
	BasicAuth         string // "id:secret", already base64-encoded
}

// Authenticator exchanges a ClientToken for a bearer access token.
type Authenticator struct {
	HTTPClient *http.Client
	Token      ClientToken
}

// NewAuthenticator builds an Authenticator. If client is nil,
// http.DefaultClient is used.
func NewAuthenticator(client *http.Client, token ClientToken) *Authenticator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Authenticator{HTTPClient: client, Token: token}
}

// Authenticate performs an OAuth client-credentials exchange and returns
// the resulting bearer access token.
func (a *Authenticator) Authenticate(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("token_type", "eg1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Token.AccountServiceURL+"/account/api/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", a.Token.UserAgent)
	req.Header.Set("Authorization", "basic "+a.Token.BasicAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("launcher: oauth exchange returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.AccessToken, nil
}
