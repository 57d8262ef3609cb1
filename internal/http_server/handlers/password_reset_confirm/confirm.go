package passwordResetConfirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/victoor832/ColdMailAI-sub001/internal/auth"
	resp "github.com/victoor832/ColdMailAI-sub001/internal/lib/api/response"
	sl "github.com/victoor832/ColdMailAI-sub001/internal/lib/logger"
)

// MsgInvalidToken covers missing, expired and already-used tokens alike.
const MsgInvalidToken = "invalid or expired token"

type Request struct {
	Token string `json:"token" validate:"required"`
	Pass  string `json:"password" validate:"required,min=6"`
}

type Response struct {
	resp.Response
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.password_reset_confirm.New"

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

		if err := authService.RedeemReset(ctx, req.Token, req.Pass); err != nil {
			if errors.Is(err, auth.ErrInvalidResetToken) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error(MsgInvalidToken))

				return
			}
			if errors.Is(err, auth.ErrPasswordTooShort) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("password is too short"))

				return
			}

			log.Error("failed to redeem reset token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Password reset completed")

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
	})
}
