// Package upstream is the console's client for the platform API. All
// business logic (session orchestration, message delivery, rule
// matching, payment settlement) happens upstream; this client attaches
// bearer tokens, refreshes them transparently, and normalizes error
// shapes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"whatsapp-console/internal/token"
)

// ErrSessionExpired is the one fatal auth failure: the refresh token is
// missing or rejected, stored credentials have been discarded, and the
// user must sign in again.
var ErrSessionExpired = errors.New("session expired, please sign in again")

// refreshWindow is how close to expiry a token may get before the
// client refreshes it ahead of the primary request. Refreshing early
// avoids the latency spike of a mid-request 401; the reactive retry in
// do() remains the safety net for clock skew.
const refreshWindow = 30 * time.Second

// Credentials is the bearer/refresh token pair issued at login.
type Credentials struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// CredentialStore persists the credential pair across restarts.
type CredentialStore interface {
	LoadCredentials() (Credentials, error)
	SaveCredentials(Credentials) error
	ClearCredentials() error
}

type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialStore
	log     *zap.Logger

	// serializes refreshes so concurrent requests don't burn the
	// single-use refresh token twice
	refreshMu sync.Mutex
}

func NewClient(baseURL string, creds CredentialStore, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		creds:   creds,
		log:     log,
	}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one authenticated call. If the stored token expires
// within refreshWindow it is exchanged first; a 401/403 on the call
// itself triggers one reactive refresh-and-retry before giving up.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	creds, err := c.creds.LoadCredentials()
	if err != nil {
		return err
	}

	if creds.Token != "" && token.ExpiresWithin(creds.Token, refreshWindow) {
		creds, err = c.refresh(ctx, creds)
		if err != nil {
			return err
		}
	}

	status, respBody, err := c.send(ctx, method, endpoint, body, creds.Token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		creds, err = c.refresh(ctx, creds)
		if err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, method, endpoint, body, creds.Token)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			c.creds.ClearCredentials()
			return ErrSessionExpired
		}
	}

	if status >= 400 {
		return errors.New(serverMessage(status, respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("upstream: bad response for %s %s: %w", method, endpoint, err)
		}
	}
	return nil
}

// doPublic performs an unauthenticated call (login, register, public
// plan catalog).
func (c *Client) doPublic(ctx context.Context, method, endpoint string, body, out interface{}) error {
	status, respBody, err := c.send(ctx, method, endpoint, body, "")
	if err != nil {
		return err
	}
	if status >= 400 {
		return errors.New(serverMessage(status, respBody))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("upstream: bad response for %s %s: %w", method, endpoint, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body interface{}, bearer string) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// refresh exchanges the refresh token for a new credential pair and
// persists it. Failure is fatal to the session: credentials are cleared
// and ErrSessionExpired returned.
func (c *Client) refresh(ctx context.Context, stale Credentials) (Credentials, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// another request may have refreshed while we waited for the lock
	if current, err := c.creds.LoadCredentials(); err == nil &&
		current.Token != "" && current.Token != stale.Token &&
		!token.ExpiresWithin(current.Token, refreshWindow) {
		return current, nil
	}

	if stale.RefreshToken == "" {
		c.creds.ClearCredentials()
		return Credentials{}, ErrSessionExpired
	}

	status, respBody, err := c.send(ctx, http.MethodPost, "/auth/refresh-token",
		map[string]string{"refreshToken": stale.RefreshToken}, "")
	if err != nil || status >= 400 {
		c.log.Warn("token refresh failed", zap.Int("status", status), zap.Error(err))
		c.creds.ClearCredentials()
		return Credentials{}, ErrSessionExpired
	}

	var fresh Credentials
	if err := json.Unmarshal(respBody, &fresh); err != nil || fresh.Token == "" {
		c.creds.ClearCredentials()
		return Credentials{}, ErrSessionExpired
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = stale.RefreshToken
	}
	if err := c.creds.SaveCredentials(fresh); err != nil {
		return Credentials{}, err
	}
	return fresh, nil
}

// serverMessage surfaces the platform's own message string verbatim
// when present; the status line is only the fallback.
func serverMessage(status int, body []byte) string {
	var e apiError
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return fmt.Sprintf("API error: %d - %s", status, string(body))
}
