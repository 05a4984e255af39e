package login

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
	"storefront_auth/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Message      string            `json:"message"`
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

// New godoc
// @Summary      Вход в систему
// @Description  Проверяет учетные данные и выдает пару access/refresh токенов.
// @Description  Токены дублируются в httpOnly куки. Неверный email и неверный
// @Description  пароль дают одинаковый ответ.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  resp.Response  "Неверные учетные данные или email не подтвержден"
// @Router       /api/auth/login [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	accessTTL, refreshTTL time.Duration,
	secureCookies bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, accessToken, refreshToken, err := authService.Login(ctx, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid credentials"))

				return
			}
			if errors.Is(err, auth.ErrEmailNotVerified) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Please verify your email before logging in"))

				return
			}

			log.Error("failed to login user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User logged in successfully")

		cookies.SetPair(w, accessToken, refreshToken, accessTTL, refreshTTL, secureCookies)

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Message:      "Login successful",
			User:         user.Public(),
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		})
	}
}
