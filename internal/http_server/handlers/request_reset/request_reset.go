package requestReset

import (
	"context"
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
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// Ответ одинаков для существующего и несуществующего email —
// перебор адресов через этот endpoint ничего не дает.
const genericMessage = "If the email exists, a reset link has been sent"

// New godoc
// @Summary      Запрос сброса пароля
// @Description  Выпускает токен сброса (окно 1 час) и шлет письмо.
// @Description  Тело ответа не зависит от существования email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  resp.Response  "Ошибка валидации"
// @Router       /api/auth/reset-password [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.requestReset.New"

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

		if err := authService.RequestReset(ctx, req.Email); err != nil {
			log.Error("failed to process reset request", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  genericMessage,
		})
	}
}
