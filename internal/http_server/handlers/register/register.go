package register

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
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required,min=6"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// New godoc
// @Summary      Регистрация пользователя
// @Description  Создает неподтвержденный аккаунт и отправляет письмо верификации.
// @Description  Падение отправки письма регистрацию не отменяет.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201  {object}  Response
// @Failure      400  {object}  resp.Response  "Ошибка валидации"
// @Failure      409  {object}  resp.Response  "Email уже зарегистрирован"
// @Router       /api/auth/register [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		userID, err := authService.Register(ctx, req.Name, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Email already registered"))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User registered", slog.String("uid", userID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Registration successful! Please check your email to verify your account.",
			UserID:   userID,
		})
	}
}
