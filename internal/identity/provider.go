package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kinohq/kino/internal/shared"
	"golang.org/x/oauth2"
)

// User represents the authenticated identity as reported by the provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds provider-issued tokens plus the user they belong to.
type Session struct {
	Token oauth2.Token
	User  User
}

// Expired reports whether the session's access token is past its expiry.
// Falls back to the JWT exp claim when the token carries no expiry time.
func (s *Session) Expired(now time.Time) bool {
	if !s.Token.Expiry.IsZero() {
		return now.After(s.Token.Expiry.Add(-expirySkew))
	}
	claims, err := ParseClaims(s.Token.AccessToken)
	if err != nil || claims.Expiry.IsZero() {
		return false
	}
	return now.After(claims.Expiry.Add(-expirySkew))
}

// expirySkew refreshes tokens slightly before their real deadline so a
// request issued right at the boundary does not ride an expired token.
const expirySkew = 30 * time.Second

// Provider defines the five identity operations this application consumes.
// Authentication itself is implemented entirely by the external service.
type Provider interface {
	// SignInWithPassword exchanges email/password credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. The returned session may carry no
	// access token when the provider requires email confirmation first.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignOut revokes the session behind the given access token.
	SignOut(ctx context.Context, accessToken string) error

	// RefreshSession exchanges a refresh token for a new session.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)

	// GetUser fetches the user behind the given access token.
	GetUser(ctx context.Context, accessToken string) (*User, error)

	// Name returns the provider name for logging.
	Name() string
}

// HTTPProvider implements [Provider] against a GoTrue-compatible REST endpoint.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider client for the given auth endpoint.
// The API key is sent as the `apikey` header on every request.
func NewHTTPProvider(baseURL, apiKey string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: client,
	}
}

func (p *HTTPProvider) Name() string { return "gotrue" }

// tokenResponse is the wire shape of token-granting endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (t tokenResponse) session(now time.Time) *Session {
	s := &Session{
		Token: oauth2.Token{
			AccessToken:  t.AccessToken,
			TokenType:    t.TokenType,
			RefreshToken: t.RefreshToken,
		},
		User: t.User,
	}
	if t.ExpiresIn > 0 {
		s.Token.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

// providerError is the wire shape of provider error bodies; the field name
// varies between endpoint generations, so all spellings are collected.
type providerError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
	Message     string `json:"message"`
}

func (e providerError) text() string {
	for _, s := range []string{e.Description, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignInWithPassword exchanges credentials for a session via the password grant.
func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	payload := map[string]string{"email": email, "password": password}
	if err := p.doRequest(ctx, http.MethodPost, "/token?grant_type=password", "", payload, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", shared.ErrAuthFailed)
	}
	return resp.session(time.Now()), nil
}

// SignUp registers a new account with the provider.
func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	payload := map[string]string{"email": email, "password": password}
	if err := p.doRequest(ctx, http.MethodPost, "/signup", "", payload, &resp); err != nil {
		return nil, err
	}
	return resp.session(time.Now()), nil
}

// SignOut revokes the session behind the access token.
func (p *HTTPProvider) SignOut(ctx context.Context, accessToken string) error {
	return p.doRequest(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// RefreshSession exchanges a refresh token for a fresh session.
func (p *HTTPProvider) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	var resp tokenResponse
	payload := map[string]string{"refresh_token": refreshToken}
	if err := p.doRequest(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", shared.ErrRefreshFailed)
	}
	return resp.session(time.Now()), nil
}

// GetUser fetches the user profile behind the access token.
func (p *HTTPProvider) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := p.doRequest(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// doRequest performs an HTTP request against the provider, attaching the API
// key header and optional bearer token, and decodes the JSON response.
func (p *HTTPProvider) doRequest(ctx context.Context, method, endpoint, token string, body any, result any) error {
	apiURL := p.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var perr providerError
		_ = json.Unmarshal(data, &perr)
		if msg := perr.text(); msg != "" {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
