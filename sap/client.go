// Package sap implements the SAP CPI gateway client: OAuth
// client-credentials authentication with a cached bearer token, and the
// two-phase CSRF handshake used by the remote function modules.
package sap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"revvo-sap-connector/metrics"
)

// tokenExpiryMargin is subtracted from expires_in so a token is renewed
// before SAP actually rejects it.
const tokenExpiryMargin = 60 * time.Second

// callTimeout bounds every remote function call.
const callTimeout = 90 * time.Second

// Credentials holds the OAuth client-credentials pair for SAP CPI
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Client calls SAP CPI remote function modules over HTTPS
type Client struct {
	baseURL     string
	oauthURL    string
	credentials Credentials
	httpClient  *http.Client

	mu              sync.Mutex
	cachedToken     string
	tokenExpiration time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewClient creates a new SAP gateway client
func NewClient(baseURL, oauthURL string, creds Credentials) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		oauthURL:    oauthURL,
		credentials: creds,
		httpClient: &http.Client{
			Timeout: callTimeout,
		},
	}
}

// GetToken returns a valid bearer token, renewing it when the cached one
// is missing or expired. The check-and-refresh is serialized so concurrent
// callers share a single renewal.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedToken != "" && time.Now().Before(c.tokenExpiration) {
		return c.cachedToken, nil
	}

	metrics.IncTokenRenew()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.credentials.ClientID)
	form.Set("client_secret", c.credentials.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		metrics.IncSAPRequest("token_renew", "failure")
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncSAPRequest("token_renew", "failure")
		return "", fmt.Errorf("unable to authenticate: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		metrics.IncSAPRequest("token_renew", "failure")
		return "", fmt.Errorf("unable to authenticate: status %d, response: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		metrics.IncSAPRequest("token_renew", "failure")
		return "", fmt.Errorf("unable to authenticate: invalid token response")
	}

	c.cachedToken = token.AccessToken
	c.tokenExpiration = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpiryMargin)

	metrics.IncSAPRequest("token_renew", "success")
	return c.cachedToken, nil
}

// CallRemote invokes a named SAP function module. It first issues a GET to
// establish the session and fetch the CSRF token, then POSTs the payload
// with bearer auth and the CSRF token.
func (c *Client) CallRemote(ctx context.Context, procedure string, payload interface{}) (json.RawMessage, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindAuth, Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, procedure)

	csrfToken, err := c.fetchCSRFToken(ctx, endpoint, token)
	if err != nil {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindTransport, Err: err}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindTransport, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindTransport, Err: err}
	}
	c.setHeaders(req, token, csrfToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindTransport, Err: err}
	}

	log.Printf("SAP %s: status %d, %d bytes", procedure, resp.StatusCode, len(body))

	if resp.StatusCode == http.StatusForbidden {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindPermission, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if resp.StatusCode != http.StatusOK {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindRemote, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if strings.TrimSpace(string(body)) == "" {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindEmpty, StatusCode: resp.StatusCode}
	}

	if !json.Valid(body) {
		metrics.IncSAPRequest(procedure, "failure")
		return nil, &CallError{Procedure: procedure, Kind: ErrKindMalformed, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	metrics.IncSAPRequest(procedure, "success")
	return json.RawMessage(body), nil
}

// fetchCSRFToken performs the initial GET. SAP CPI answers with the
// x-csrf-token header; an empty token is tolerated since not every tenant
// enforces the handshake.
func (c *Client) fetchCSRFToken(ctx context.Context, endpoint, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req, token, "Fetch")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("csrf fetch failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.Header.Get("x-csrf-token"), nil
}

func (c *Client) setHeaders(req *http.Request, token, csrfToken string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if csrfToken != "" {
		req.Header.Set("X-CSRF-Token", csrfToken)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
