package login

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

// MsgInvalidCredentials is the single wording for every sign-in failure.
// "No such account" and "wrong password" must not be distinguishable.
const MsgInvalidCredentials = "invalid email or password"

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	SessionToken string `json:"session_token"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
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

		sessionToken, err := authService.SignIn(ctx, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error(MsgInvalidCredentials))

				return
			}

			log.Error("failed to sign in", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Signed in successfully")

		ResponseOK(w, r, sessionToken)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, sessionToken string) {
	render.JSON(w, r, Response{
		Response:     resp.OK(),
		SessionToken: sessionToken,
	})
}
