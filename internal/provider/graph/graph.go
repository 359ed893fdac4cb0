package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/antqd/emailsender/internal/email"
)

// GraphProviderConfig holds the configuration for creating a GraphProvider.
// Mailbox is the user whose account sends the mail.
type GraphProviderConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Mailbox      string
}

// GraphProvider sends emails via the Microsoft Graph API using OAuth2
// client credentials authentication.
type GraphProvider struct {
	sendURL    string
	httpClient *http.Client
	tokens     *tokenSource
}

// StatusError is a non-success reply from the sendMail endpoint.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Graph API error (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// New creates a new GraphProvider with the given configuration.
func New(cfg GraphProviderConfig) *GraphProvider {
	client := &http.Client{Timeout: 30 * time.Second}

	return newWithEndpoints(
		cfg,
		fmt.Sprintf("https://graph.microsoft.com/v1.0/users/%s/sendMail", url.PathEscape(cfg.Mailbox)),
		fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(cfg.TenantID)),
		client,
	)
}

func newWithEndpoints(cfg GraphProviderConfig, sendURL, tokenURL string, client *http.Client) *GraphProvider {
	return &GraphProvider{
		sendURL:    sendURL,
		httpClient: client,
		tokens:     newTokenSource(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
	}
}

// Send posts msg to sendMail. A 401 triggers one token refresh and a single
// repeat of the request; any other failure is returned to the caller.
func (g *GraphProvider) Send(ctx context.Context, msg *email.Email) error {
	payload, err := json.Marshal(buildSendMailRequest(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	err = g.post(ctx, token, payload)

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
		slog.InfoContext(ctx, "refreshing Graph API token after 401")
		if token, err = g.tokens.Invalidate(ctx, token); err != nil {
			return fmt.Errorf("token refresh failed: %w", err)
		}
		err = g.post(ctx, token, payload)
	}

	return err
}

// Name returns the provider name.
func (g *GraphProvider) Name() string {
	return "msgraph"
}

func (g *GraphProvider) post(ctx context.Context, token string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// sendMail answers 202 Accepted.
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	se := &StatusError{StatusCode: resp.StatusCode, Message: string(body)}
	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
		se.Code = er.Error.Code
		se.Message = er.Error.Message
	}
	return se
}
