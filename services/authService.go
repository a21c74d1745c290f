package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/CryOutNow/models"
)

// AuthClient wraps the managed backend's auth endpoints. Credentials and
// sessions are stored and verified entirely by the backend; this client only
// forwards them and hands back the issued session.
type AuthClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var authClient *AuthClient

func InitAuthClient() {
	authClient = &AuthClient{
		baseURL: strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		apiKey:  os.Getenv("ANON_KEY"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func GetAuthClient() *AuthClient {
	return authClient
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID           string                 `json:"id"`
		Email        string                 `json:"email"`
		UserMetadata map[string]interface{} `json:"user_metadata"`
	} `json:"user"`
}

// SignIn exchanges email/password credentials for a session.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	return a.tokenRequest(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignUp registers a new account. Depending on backend settings the session
// may be usable immediately or only after the backend's own confirmation.
func (a *AuthClient) SignUp(ctx context.Context, email, password, name string) (models.Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if name != "" {
		body["data"] = map[string]string{"full_name": name}
	}
	return a.tokenRequest(ctx, "/signup", body)
}

// SignOut revokes a session's token on the backend.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sign-out returned %d", resp.StatusCode)
	}
	return nil
}

// OAuthURL builds the redirect URL that starts a delegated sign-in with the
// named provider.
func (a *AuthClient) OAuthURL(provider, redirectTo string) string {
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return a.baseURL + "/authorize?" + q.Encode()
}

func (a *AuthClient) tokenRequest(ctx context.Context, path string, body interface{}) (models.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return models.Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return models.Session{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Session{}, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return models.Session{}, fmt.Errorf("auth request returned %d: %s", resp.StatusCode, raw)
	}

	var token tokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return models.Session{}, err
	}
	if token.AccessToken == "" || token.User.ID == "" {
		return models.Session{}, fmt.Errorf("auth response missing token or user")
	}

	return models.Session{
		User_ID:      token.User.ID,
		Email:        token.User.Email,
		Access_Token: token.AccessToken,
		Metadata:     token.User.UserMetadata,
	}, nil
}

func (a *AuthClient) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("apikey", a.apiKey)
	}
}
