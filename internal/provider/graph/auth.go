package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenExpiryBuffer is subtracted from the advertised lifetime so a token is
// never presented just as it expires.
const tokenExpiryBuffer = 5 * time.Minute

const defaultScope = "https://graph.microsoft.com/.default"

// tokenSource hands out client-credentials access tokens, caching one until
// shortly before it expires. It is safe for concurrent use.
type tokenSource struct {
	endpoint   string
	form       url.Values
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(endpoint, clientID, clientSecret string, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		endpoint: endpoint,
		form: url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
			"scope":         {defaultScope},
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Token returns the cached token, fetching a new one when none is valid.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}
	return ts.fetch(ctx)
}

// Invalidate drops the cached token if it is still stale, then fetches a new
// one. A token already replaced by a concurrent caller is returned as is.
func (ts *tokenSource) Invalidate(ctx context.Context, stale string) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.token != stale && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}
	ts.token = ""
	return ts.fetch(ctx)
}

// fetch requires ts.mu.
func (ts *tokenSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.endpoint, strings.NewReader(ts.form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}

	ts.token = tr.AccessToken
	ts.expiresAt = ts.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryBuffer)

	return ts.token, nil
}
