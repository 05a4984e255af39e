package confirmReset

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront_auth/internal/auth"
	resp "storefront_auth/internal/lib/api/response"
	sl "storefront_auth/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// New godoc
// @Summary      Сброс пароля по токену
// @Description  Меняет пароль по одноразовому токену сброса. Все действующие
// @Description  сессии пользователя после смены пароля разлогинены.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  resp.Response  "Невалидный или истекший токен"
// @Router       /api/auth/reset-password [put]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.confirmReset.New"

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

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := authService.ConfirmReset(ctx, req.Token, req.NewPassword); err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid or expired reset token"))

				return
			}

			log.Error("failed to reset password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("password reset successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Password reset successful! You can now log in.",
		})
	}
}
