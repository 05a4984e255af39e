package resendEmail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront_auth/internal/auth"
	resp "storefront_auth/internal/lib/api/response"
	sl "storefront_auth/internal/lib/logger"
	"storefront_auth/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// New godoc
// @Summary      Повторная отправка письма верификации
// @Description  Выпускает новый токен верификации, затирая прежний, и шлет
// @Description  письмо еще раз. Для уже подтвержденного email — 400.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  resp.Response  "Email уже подтвержден"
// @Failure      404  {object}  resp.Response  "Пользователь не найден"
// @Router       /api/auth/verify [put]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resendVerificationEmail.New"

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

		if err := authService.ResendVerification(ctx, req.Email); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}
			if errors.Is(err, auth.ErrAlreadyVerified) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email is already verified"))

				return
			}

			log.Error("failed to resend verification email", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Verification email resent")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Verification email sent successfully",
		})
	}
}
