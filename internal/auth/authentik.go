package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the identity provider rejects a token
	ErrInvalidToken = errors.New("invalid bearer token")
)

// AuthentikConfig holds the configuration for Authentik OAuth2/OIDC
type AuthentikConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// CacheTTL bounds how long a verified token is trusted without asking
	// Authentik again
	CacheTTL time.Duration
}

// User represents an authenticated user
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// InGroup reports whether the user belongs to group
func (u *User) InGroup(group string) bool {
	if u == nil {
		return false
	}
	for _, g := range u.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Provider verifies bearer tokens and runs the login flow that issues them
type Provider interface {
	Authenticate(ctx context.Context, token string) (*User, error)
	LoginHandler(w http.ResponseWriter, r *http.Request)
	CallbackHandler(w http.ResponseWriter, r *http.Request)
}

// session is a verified token
type session struct {
	user      *User
	expiresAt time.Time
}

// AuthentikAuth verifies tokens against Authentik's userinfo endpoint
type AuthentikAuth struct {
	config       *AuthentikConfig
	oauth2Config *oauth2.Config
	httpClient   *http.Client
	sessions     map[string]*session
	sessionMu    sync.RWMutex
}

// NewAuthentikAuth creates a new Authentik authentication handler
func NewAuthentikAuth(config *AuthentikConfig) *AuthentikAuth {
	if len(config.Scopes) == 0 {
		config.Scopes = []string{"openid", "profile", "email"}
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       config.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("%s/application/o/authorize/", config.BaseURL),
			TokenURL: fmt.Sprintf("%s/application/o/token/", config.BaseURL),
		},
	}

	return &AuthentikAuth{
		config:       config,
		oauth2Config: oauth2Config,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		sessions:     make(map[string]*session),
	}
}

// Authenticate resolves a bearer token to a user, consulting Authentik at
// most once per cache period per token
func (a *AuthentikAuth) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	a.sessionMu.RLock()
	s, ok := a.sessions[token]
	a.sessionMu.RUnlock()
	if ok && time.Now().Before(s.expiresAt) {
		return s.user, nil
	}

	user, err := a.getUserInfo(ctx, &oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	if err != nil {
		return nil, err
	}

	a.sessionMu.Lock()
	a.sessions[token] = &session{user: user, expiresAt: time.Now().Add(a.config.CacheTTL)}
	for k, v := range a.sessions {
		if time.Now().After(v.expiresAt) {
			delete(a.sessions, k)
		}
	}
	a.sessionMu.Unlock()
	return user, nil
}

// LoginHandler initiates the OAuth2 login flow
func (a *AuthentikAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := generateState()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler exchanges the authorization code and hands the access
// token back as JSON for use as a bearer token
func (a *AuthentikAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Warn("Token exchange failed", "error", err)
		http.Error(w, "Failed to exchange token", http.StatusBadGateway)
		return
	}
	user, err := a.Authenticate(r.Context(), token.AccessToken)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeToken(w, token.AccessToken, token.Expiry, user)
}

func writeToken(w http.ResponseWriter, token string, expiry time.Time, user *User) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiry,
		"user":         user,
	})
}

// getUserInfo fetches user information from Authentik
func (a *AuthentikAuth) getUserInfo(ctx context.Context, token *oauth2.Token) (*User, error) {
	userInfoURL := fmt.Sprintf("%s/application/o/userinfo/", a.config.BaseURL)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to get user info: %s - %s", resp.Status, string(body))
	}

	var userInfo struct {
		Sub               string   `json:"sub"`
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Groups            []string `json:"groups"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &User{
		ID:       userInfo.Sub,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Username: userInfo.PreferredUsername,
		Groups:   userInfo.Groups,
	}, nil
}

// generateState generates a random state string for CSRF protection
func generateState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// MockDevToken is the bearer token MockAuth accepts
const MockDevToken = "dev-commissioner-token"

// MockAuth provides a mock authentication for local development
type MockAuth struct {
	user *User
}

// NewMockAuth creates a mock provider whose dev user belongs to group
func NewMockAuth(group string) *MockAuth {
	return &MockAuth{
		user: &User{
			ID:       "dev-user-123",
			Email:    "dev@dynasty.local",
			Name:     "Dev User",
			Username: "devuser",
			Groups:   []string{"users", group},
		},
	}
}

// Authenticate accepts only MockDevToken
func (m *MockAuth) Authenticate(ctx context.Context, token string) (*User, error) {
	switch token {
	case "":
		return nil, ErrMissingToken
	case MockDevToken:
		return m.user, nil
	default:
		return nil, ErrInvalidToken
	}
}

// LoginHandler for mock auth hands out the dev token directly
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	writeToken(w, MockDevToken, time.Now().Add(24*time.Hour), m.user)
}

// CallbackHandler is not needed for mock auth
func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	m.LoginHandler(w, r)
}

type contextKey struct{}

// BearerToken extracts the token from an Authorization header
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireGroup protects routes that only members of group may call
func RequireGroup(p Provider, group string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := p.Authenticate(r.Context(), BearerToken(r))
		if err != nil {
			if !errors.Is(err, ErrMissingToken) && !errors.Is(err, ErrInvalidToken) {
				logger.Error("Token verification failed", "error", err)
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="dynasty"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !user.InGroup(group) {
			logger.Warn("Forbidden request", "user", user.Username, "path", r.URL.Path, "group", group)
			http.Error(w, "Forbidden: "+group+" access required", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUser retrieves the authenticated user from the request context
func GetUser(r *http.Request) *User {
	user, _ := r.Context().Value(contextKey{}).(*User)
	return user
}
