// Package oauth manages the provider token lifecycle: id-token
// verification and access-token refresh.
package oauth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/platform/logging"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

// Refresh early so a token never expires mid-pipeline.
const defaultExpiryLeeway = 2 * time.Minute

type ClientConfig struct {
	HTTPClient   *http.Client
	VerifyURL    string
	TokenURL     string
	ClientID     string
	ClientSecret string
	ExpiryLeeway time.Duration
	Logger       *logging.Logger
}

type Client struct {
	httpClient   *http.Client
	verifyURL    string
	tokenURL     string
	clientID     string
	clientSecret string
	leeway       time.Duration
	logger       *logging.Logger
	now          func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	leeway := cfg.ExpiryLeeway
	if leeway <= 0 {
		leeway = defaultExpiryLeeway
	}

	return &Client{
		httpClient:   httpClient,
		verifyURL:    strings.TrimSpace(cfg.VerifyURL),
		tokenURL:     strings.TrimSpace(cfg.TokenURL),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		leeway:       leeway,
		logger:       logger,
		now:          time.Now,
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Active  bool   `json:"active"`
	Subject string `json:"sub"`
}

// VerifyIDToken checks the id token against the provider's verification
// endpoint. An inactive or rejected token is an authorization failure.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) error {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return fmt.Errorf("%w: id token is required", usecase.ErrUnauthorized)
	}

	encoded, err := sonic.Marshal(verifyRequest{Token: idToken})
	if err != nil {
		return fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request token verification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: verification denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read verify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "token verification non-200", "status_code", resp.StatusCode)
		return fmt.Errorf("token verification failed with status %d", resp.StatusCode)
	}

	var decoded verifyResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("unmarshal verify response: %w", err)
	}
	if !decoded.Active {
		return fmt.Errorf("%w: inactive id token", usecase.ErrUnauthorized)
	}
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshIfNeeded returns the credential unchanged while it is still valid
// past the leeway window; otherwise it redeems the refresh token.
func (c *Client) RefreshIfNeeded(ctx context.Context, cred credential.Credential) (credential.Credential, error) {
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return credential.Credential{}, fmt.Errorf("%w: no token material", usecase.ErrUnauthorized)
	}
	if !cred.Expired(c.now().Add(c.leeway)) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return credential.Credential{}, fmt.Errorf("%w: access token expired and no refresh token", usecase.ErrUnauthorized)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", cred.RefreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return credential.Credential{}, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("request token refresh: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return credential.Credential{}, fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return credential.Credential{}, fmt.Errorf("%w: refresh token rejected", usecase.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "token refresh non-200", "status_code", resp.StatusCode)
		return credential.Credential{}, fmt.Errorf("token refresh failed with status %d", resp.StatusCode)
	}

	var decoded tokenResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return credential.Credential{}, fmt.Errorf("unmarshal refresh response: %w", err)
	}
	if decoded.AccessToken == "" {
		return credential.Credential{}, fmt.Errorf("refresh response missing access token")
	}

	next := credential.Credential{
		AccessToken:  decoded.AccessToken,
		RefreshToken: decoded.RefreshToken,
		IDToken:      decoded.IDToken,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = cred.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = cred.IDToken
	}
	if decoded.ExpiresIn > 0 {
		next.ExpiresAt = c.now().Add(time.Duration(decoded.ExpiresIn) * time.Second)
	}

	c.logger.InfoContext(ctx, "access token refreshed")
	return next, nil
}
