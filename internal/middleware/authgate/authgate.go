package authgate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront_auth/internal/lib/api/cookies"
	resp "storefront_auth/internal/lib/api/response"
	"storefront_auth/internal/models"

	"github.com/go-chi/render"
)

// Префиксы, за которыми нужна аутентификация. Пути самого auth API
// исключены: иначе нельзя было бы ни залогиниться, ни обновить токен.
var protectedPrefixes = []string{
	"/admin",
	"/account",
	"/api/admin",
	"/api/orders",
	"/api/users",
}

var adminPrefixes = []string{
	"/admin",
	"/api/admin",
}

const loginPage = "/auth/login"

type ctxKey struct{}

// * Identity — личность, проверенная шлюзом на этом запросе.
// Дальше по цепочке обработчики читают только ее; заголовкам с
// идентичностью от клиента шлюз не верит никогда.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

type Verifier interface {
	VerifyAccess(token string) (models.TokenPayload, error)
}

// * New возвращает middleware-шлюз: извлекает bearer токен, проверяет
// подпись и срок, следит за ролью и кладет личность в контекст запроса.
// Страницы при отказе получают редирект, API — структурный 401/403.
func New(log *slog.Logger, codec Verifier, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if !requiresAuth(path) {
				next.ServeHTTP(w, r)
				return
			}

			isAPI := strings.HasPrefix(path, "/api")

			token := extractToken(r)
			if token == "" {
				deny(w, r, isAPI, "Unauthorized", http.StatusUnauthorized, loginPage)
				return
			}

			payload, err := codec.VerifyAccess(token)
			if err != nil {
				// Протухшую куку чистим, чтобы браузер не слал ее снова.
				cookies.Clear(w, cookies.AccessToken, secureCookies)
				deny(w, r, isAPI, "Invalid token", http.StatusUnauthorized, loginPage)
				return
			}

			if requiresAdmin(path) && payload.Role != models.RoleAdmin {
				log.Warn("admin path denied",
					slog.String("path", path),
					slog.String("uid", payload.UserID),
				)
				deny(w, r, isAPI, "Forbidden", http.StatusForbidden, "/")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, Identity{
				UserID: payload.UserID,
				Email:  payload.Email,
				Role:   payload.Role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requiresAuth(path string) bool {
	if hasPrefix(path, "/api/auth") {
		return false
	}

	for _, p := range protectedPrefixes {
		if hasPrefix(path, p) {
			return true
		}
	}

	return false
}

func requiresAdmin(path string) bool {
	for _, p := range adminPrefixes {
		if hasPrefix(path, p) {
			return true
		}
	}

	return false
}

// hasPrefix сравнивает по границе сегмента: "/admin" не матчит "/administrator".
func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// extractToken: кука в приоритете, затем заголовок Authorization.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(cookies.AccessToken); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}

	return ""
}

func deny(w http.ResponseWriter, r *http.Request, isAPI bool, msg string, status int, redirectTo string) {
	if isAPI {
		render.Status(r, status)
		render.JSON(w, r, resp.Error(msg))
		return
	}

	http.Redirect(w, r, redirectTo, http.StatusFound)
}
