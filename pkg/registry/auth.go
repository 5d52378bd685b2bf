package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"golang.org/x/sync/singleflight"
)

// Authorizer hands out credentials scoped to a single registry query.
type Authorizer interface {
	// CatalogAuth returns credentials allowed to list the whole catalog.
	CatalogAuth(ctx context.Context, reg name.Registry) (authn.Authenticator, error)
	// RepositoryAuth returns credentials allowed to read (and delete from) one repository.
	RepositoryAuth(ctx context.Context, repo name.Repository) (authn.Authenticator, error)
}

// KeychainAuthorizer resolves credentials from a keychain, usually the docker config.
type KeychainAuthorizer struct {
	Keychain authn.Keychain
}

func NewKeychainAuthorizer(kc authn.Keychain) *KeychainAuthorizer {
	if kc == nil {
		kc = authn.DefaultKeychain
	}
	return &KeychainAuthorizer{Keychain: kc}
}

func (k *KeychainAuthorizer) CatalogAuth(_ context.Context, reg name.Registry) (authn.Authenticator, error) {
	return k.resolve(reg)
}

func (k *KeychainAuthorizer) RepositoryAuth(_ context.Context, repo name.Repository) (authn.Authenticator, error) {
	return k.resolve(repo)
}

func (k *KeychainAuthorizer) resolve(target authn.Resource) (authn.Authenticator, error) {
	a, err := k.Keychain.Resolve(target)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving credentials for '%v': %w", ErrAuthToken, target, err)
	}
	return a, nil
}

// StaticAuthorizer uses the same username and password for every query.
type StaticAuthorizer struct {
	Username string
	Password string
}

func (s *StaticAuthorizer) CatalogAuth(context.Context, name.Registry) (authn.Authenticator, error) {
	return s.authenticator(), nil
}

func (s *StaticAuthorizer) RepositoryAuth(context.Context, name.Repository) (authn.Authenticator, error) {
	return s.authenticator(), nil
}

func (s *StaticAuthorizer) authenticator() authn.Authenticator {
	if s.Username == "" && s.Password == "" {
		return authn.Anonymous
	}
	return &authn.Basic{Username: s.Username, Password: s.Password}
}

// GitLabAuthorizer requests a scoped registry JWT from a GitLab instance,
// the way the docker client does against a GitLab registry. A token is
// requested once per scope and reused until shortly before it expires.
type GitLabAuthorizer struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client

	mu     sync.Mutex
	tokens map[string]cachedToken
	group  singleflight.Group
	now    func() time.Time
}

type cachedToken struct {
	auth    authn.Authenticator
	expires time.Time
}

// GitLab issues registry tokens valid for five minutes unless configured otherwise.
const (
	defaultTokenLifetime = 5 * time.Minute
	tokenExpiryMargin    = 10 * time.Second
)

func NewGitLabAuthorizer(baseURL, username, password string) *GitLabAuthorizer {
	return &GitLabAuthorizer{
		BaseURL:    baseURL,
		Username:   username,
		Password:   password,
		HTTPClient: http.DefaultClient,
	}
}

func (g *GitLabAuthorizer) CatalogAuth(ctx context.Context, _ name.Registry) (authn.Authenticator, error) {
	return g.scopedToken(ctx, "registry:catalog:*")
}

func (g *GitLabAuthorizer) RepositoryAuth(ctx context.Context, repo name.Repository) (authn.Authenticator, error) {
	return g.scopedToken(ctx, fmt.Sprintf("repository:%s:*", repo.RepositoryStr()))
}

func (g *GitLabAuthorizer) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}

func (g *GitLabAuthorizer) lookup(scope string) (authn.Authenticator, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tokens[scope]
	if !ok || !g.clock().Before(t.expires) {
		return nil, false
	}
	return t.auth, true
}

func (g *GitLabAuthorizer) store(scope string, t cachedToken) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tokens == nil {
		g.tokens = make(map[string]cachedToken)
	}
	g.tokens[scope] = t
}

// scopedToken returns a valid token for scope. Concurrent callers asking for
// the same scope share one request; failures are not remembered.
func (g *GitLabAuthorizer) scopedToken(ctx context.Context, scope string) (authn.Authenticator, error) {
	if auth, ok := g.lookup(scope); ok {
		return auth, nil
	}
	v, err, _ := g.group.Do(scope, func() (interface{}, error) {
		if auth, ok := g.lookup(scope); ok {
			return auth, nil
		}
		issued := g.clock()
		auth, lifetime, err := g.token(ctx, scope)
		if err != nil {
			return nil, err
		}
		g.store(scope, cachedToken{auth: auth, expires: issued.Add(lifetime - tokenExpiryMargin)})
		return auth, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(authn.Authenticator), nil
}

type jwtResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (g *GitLabAuthorizer) token(ctx context.Context, scope string) (authn.Authenticator, time.Duration, error) {
	q := url.Values{}
	q.Set("client_id", "docker")
	q.Set("offline_token", "true")
	q.Set("service", "container_registry")
	q.Set("scope", scope)
	authURL := strings.TrimSuffix(g.BaseURL, "/") + "/jwt/auth?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrAuthToken, err)
	}
	req.SetBasicAuth(g.Username, g.Password)

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrAuthToken, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: scope '%s': unexpected status %d", ErrAuthToken, scope, resp.StatusCode)
	}
	var body jwtResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("%w: scope '%s': %w", ErrAuthToken, scope, err)
	}
	if body.Token == "" {
		return nil, 0, fmt.Errorf("%w: scope '%s': response carries no token", ErrAuthToken, scope)
	}
	lifetime := defaultTokenLifetime
	if body.ExpiresIn > 0 {
		lifetime = time.Duration(body.ExpiresIn) * time.Second
	}
	return &authn.Bearer{Token: body.Token}, lifetime, nil
}
