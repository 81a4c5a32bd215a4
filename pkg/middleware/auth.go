// pkg/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"payrouter/pkg/config"
	"payrouter/pkg/problems"
)

// jwksCache caches JWKS sets per URL.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

type tokenCtxKey struct{}

// KeySource returns the verification keys for inbound tokens.
type KeySource func(ctx context.Context) (jwk.Set, error)

// JWKSKeySource fetches and caches the JWKS at url.
func JWKSKeySource(url string) KeySource {
	cache := &jwksCache{}
	return func(ctx context.Context) (jwk.Set, error) { return cache.get(ctx, url, 6*time.Hour) }
}

func isPublic(path string) bool {
	return path == "/healthz" || path == "/metrics" || strings.HasPrefix(path, "/.well-known/")
}

// JWTAuth validates bearer tokens against keys and stores the token and its
// scopes in the request context. With a nil key source in dev, requests pass
// unauthenticated with every scope.
func JWTAuth(cfg config.Config, keys KeySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if keys == nil {
				if cfg.Env != "dev" {
					problems.Write(w, http.StatusInternalServerError, "auth-not-configured", "Auth not configured", "JWKS_URL is required outside dev")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithScopes(r.Context(), []string{AnyScope})))
				return
			}

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				problems.Write(w, http.StatusUnauthorized, "missing-bearer", "Missing bearer token", "")
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])

			set, err := keys(r.Context())
			if err != nil {
				problems.Write(w, http.StatusInternalServerError, "jwks-unavailable", "JWKS fetch failed", "")
				return
			}
			opts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true), jwt.WithAcceptableSkew(time.Minute)}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(strings.TrimRight(cfg.Issuer, "/")))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}
			jt, err := jwt.Parse([]byte(raw), opts...)
			if err != nil {
				problems.Write(w, http.StatusUnauthorized, "invalid-token", "Invalid token", "")
				return
			}
			var scopes []string
			if sc, ok := jt.Get("scope"); ok {
				if s, _ := sc.(string); s != "" {
					scopes = strings.Fields(s)
				}
			}
			ctx := WithScopes(r.Context(), scopes)
			ctx = context.WithValue(ctx, tokenCtxKey{}, jt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorSub returns the sub claim of the verified token, if any.
func ActorSub(ctx context.Context) string {
	if jt := tokenFromCtx(ctx); jt != nil {
		return jt.Subject()
	}
	return ""
}

func claim(ctx context.Context, name string) string {
	if jt := tokenFromCtx(ctx); jt != nil {
		if v, ok := jt.Get(name); ok {
			s, _ := v.(string)
			return s
		}
	}
	return ""
}

func tokenFromCtx(ctx context.Context) jwt.Token {
	if t, ok := ctx.Value(tokenCtxKey{}).(jwt.Token); ok {
		return t
	}
	return nil
}
