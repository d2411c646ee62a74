package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/souk/internal/cookie"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/google/uuid"
)

// ShopperIDHeader lets API clients that don't keep cookies present their
// shopper ID explicitly. It is echoed on every response.
const ShopperIDHeader = "X-Shopper-ID"

// WithIdentity attaches a shopper identity to every request.
//
// Resolution order: X-Shopper-ID header, then the shopper cookie, then a
// freshly generated anonymous ID which is persisted in the cookie. A
// malformed header is rejected; a malformed cookie is replaced. A request
// logger already in the context gains a shopper_id attribute.
func WithIdentity(cookies *cookie.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id uuid.UUID

			if raw := r.Header.Get(ShopperIDHeader); raw != "" {
				parsed, err := uuid.Parse(raw)
				if err != nil || parsed == uuid.Nil {
					respondBadRequest(w, r, "Invalid shopper ID")
					return
				}
				id = parsed
			} else if raw := cookie.Get(r, cookie.ShopperCookieName); raw != "" {
				if parsed, err := uuid.Parse(raw); err == nil && parsed != uuid.Nil {
					id = parsed
				}
			}

			if id == uuid.Nil {
				id = uuid.New()
				cookies.Set(w, cookie.ShopperCookieName, id.String(), cookie.ShopperMaxAge)
			}

			w.Header().Set(ShopperIDHeader, id.String())

			ctx := domain.NewContextWithIdentity(r.Context(), &domain.Identity{
				ID:        id,
				Anonymous: true,
			})
			if logger, ok := ctx.Value(LoggerContextKey).(*slog.Logger); ok {
				ctx = context.WithValue(ctx, LoggerContextKey, logger.With(slog.String("shopper_id", id.String())))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
