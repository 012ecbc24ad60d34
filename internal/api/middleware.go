package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/auth"
)

type ctxKey string

const ctxUser ctxKey = "user"

// authMiddleware resolves the bearer token to an active user. Role and active
// flag come from the database on every request, not from the token.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, apperror.KindUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		userID, err := h.tokens.Parse(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, apperror.KindUnauthorized, "invalid token")
			return
		}
		user, err := h.svc.ResolveIdentity(r.Context(), userID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// require rejects requests whose user may not perform op.
func (h *Handler) require(op auth.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Authorize(currentUser(r), op) {
				respondError(w, http.StatusForbidden, apperror.KindForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(ctxUser).(*domain.User)
	return user
}

func (h *Handler) loginRateLimit() (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(h.opts.LoginRate)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate)
	limiterMiddleware := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			h.logger.Warn("login rate limit reached", zap.String("remote_addr", r.RemoteAddr))
			respondError(w, http.StatusTooManyRequests, apperror.Kind("rate_limited"), "too many login attempts, try again later")
		}))
	return limiterMiddleware.Handler, nil
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
