package me

import (
	"log/slog"
	"net/http"

	resp "storefront_auth/internal/lib/api/response"
	"storefront_auth/internal/middleware/authgate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// * New отдает личность, которую проверил шлюз на этом запросе.
// Путь лежит под /api/users, поэтому без валидного access токена
// сюда не попасть.
func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		identity, ok := authgate.FromContext(r.Context())
		if !ok {
			log.Error("no identity in context on protected path")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			UserID:   identity.UserID,
			Email:    identity.Email,
			Role:     identity.Role,
		})
	}
}
