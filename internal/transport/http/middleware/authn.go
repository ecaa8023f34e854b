package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/Kris-gadara/Taskly/internal/errors"
	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/service"
)

type ctxKeyClaims struct{}

// TokenValidator — минимальный контракт проверки access-токена.
// Реализуется сервисным слоем (service.Service.ValidateAccessToken).
type TokenValidator interface {
	ValidateAccessToken(tokenStr string) (*models.TokenClaims, error)
}

// Authn — авторизация защищённых роутов по Authorization: Bearer.
// Невалидный/отсутствующий токен короткоциклит запрос с 401 до бизнес-логики;
// валидный кладёт claims владельца в контекст для downstream-проверок владения.
func Authn(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			claims, err := v.ValidateAccessToken(token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom возвращает claims аутентифицированного пользователя из контекста.
func ClaimsFrom(ctx context.Context) (*models.TokenClaims, bool) {
	c, ok := ctx.Value(ctxKeyClaims{}).(*models.TokenClaims)
	return c, ok && c != nil
}

// bearerToken извлекает токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
