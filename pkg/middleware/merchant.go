// pkg/middleware/merchant.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"payrouter/pkg/merchants"
	"payrouter/pkg/problems"
)

type ctxMerchantKey struct{}

// MerchantHeader selects the merchant when no token carries one (dev only).
const MerchantHeader = "X-Merchant-Id"

// WithMerchant resolves the calling merchant from the token's merchant_id
// claim, falling back to the X-Merchant-Id header for unauthenticated dev
// requests, and rejects unknown merchants.
func WithMerchant(store merchants.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			id := claim(r.Context(), "merchant_id")
			if id == "" && tokenFromCtx(r.Context()) == nil {
				id = r.Header.Get(MerchantHeader)
			}
			if id == "" {
				problems.Write(w, http.StatusUnauthorized, "merchant-required", "Merchant required", "The token carries no merchant_id claim")
				return
			}
			m, err := store.Merchant(r.Context(), id)
			if errors.Is(err, merchants.ErrNotFound) {
				problems.Write(w, http.StatusNotFound, "unknown-merchant", "Unknown merchant", "")
				return
			}
			if err != nil {
				problems.Write(w, http.StatusInternalServerError, "merchant-lookup", "Merchant lookup failed", "")
				return
			}
			ctx := context.WithValue(r.Context(), ctxMerchantKey{}, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func MerchantFrom(ctx context.Context) merchants.Merchant {
	if m, ok := ctx.Value(ctxMerchantKey{}).(merchants.Merchant); ok {
		return m
	}
	return merchants.Merchant{}
}
