package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"storefront_auth/internal/auth"
	"storefront_auth/internal/lib/api/cookies"
	resp "storefront_auth/internal/lib/api/response"
	sl "storefront_auth/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// New godoc
// @Summary      Выход из системы
// @Description  Чистит обе auth-куки и, если предъявлен действующий refresh
// @Description  токен, гасит его слот в базе. Всегда отвечает 200.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response
// @Router       /api/auth/logout [post]
func New(
	log *slog.Logger,
	authService *auth.Auth,
	secureCookies bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if c, err := r.Cookie(cookies.RefreshToken); err == nil && c.Value != "" {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			// Инвалидация слота — best-effort: куки чистим в любом случае.
			if err := authService.Logout(ctx, c.Value); err != nil {
				log.Warn("failed to invalidate refresh token", sl.Err(err))
			}
		}

		cookies.ClearPair(w, secureCookies)

		log.Info("user logged out")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Logged out successfully",
		})
	}
}
