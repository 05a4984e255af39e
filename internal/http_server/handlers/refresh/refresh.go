package refresh

import (
	"context"
	"errors"
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

type Request struct {
	RefreshToken string `json:"refreshToken"`
}

type Response struct {
	resp.Response
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// New godoc
// @Summary      Обновление пары токенов
// @Description  Меняет refresh токен на новую пару. Токен берется из куки,
// @Description  тело запроса читается только когда куки нет. Старый refresh
// @Description  токен после ротации недействителен.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  resp.Response  "Невалидный, истекший или уже ротированный токен"
// @Router       /api/auth/refresh [post]
func New(
	log *slog.Logger,
	authService *auth.Auth,
	accessTTL, refreshTTL time.Duration,
	secureCookies bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		// Кука имеет приоритет над телом запроса.
		refreshToken := ""
		if c, err := r.Cookie(cookies.RefreshToken); err == nil {
			refreshToken = c.Value
		} else {
			var req Request
			if err := render.DecodeJSON(r.Body, &req); err == nil {
				refreshToken = req.RefreshToken
			}
		}

		if refreshToken == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Refresh token is required"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		accessToken, newRefreshToken, err := authService.Refresh(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid refresh token"))

				return
			}

			log.Error("failed to refresh tokens", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Tokens refreshed successfully")

		cookies.SetPair(w, accessToken, newRefreshToken, accessTTL, refreshTTL, secureCookies)

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Message:      "Token refreshed successfully",
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
		})
	}
}
