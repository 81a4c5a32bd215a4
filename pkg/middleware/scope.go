// pkg/middleware/scope.go
package middleware

import (
	"context"
	"net/http"

	"payrouter/pkg/problems"
)

type scopeCtxKey struct{}

// AnyScope grants every scope. It is only set for unauthenticated dev calls.
const AnyScope = "*"

const (
	ScopePaymentsWrite = "payments:write"
	ScopePaymentsRead  = "payments:read"
	ScopeRefundsWrite  = "refunds:write"
	ScopeAdmin         = "admin"
)

func WithScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, scopes)
}

func ScopesFrom(ctx context.Context) []string {
	s, _ := ctx.Value(scopeCtxKey{}).([]string)
	return s
}

// HasAnyScope returns true if context holds at least one of the required scopes.
func HasAnyScope(ctx context.Context, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := map[string]struct{}{}
	for _, s := range ScopesFrom(ctx) {
		if s == AnyScope {
			return true
		}
		set[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// RequireScope rejects requests holding none of scopes.
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasAnyScope(r.Context(), scopes) {
				problems.Write(w, http.StatusForbidden, "insufficient-scope", "Insufficient scope", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
