package register

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

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required,min=6"`
}

type Response struct {
	resp.Response
	AccountID int64 `json:"account_id"`
}

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

		accountID, err := authService.SignUp(ctx, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrAccountExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("account already exists"))

				return
			}
			if errors.Is(err, auth.ErrPasswordTooShort) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("password is too short"))

				return
			}

			log.Error("failed to register account", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Account registered", slog.Int64("id", accountID))

		ResponseOK(w, r, accountID)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, accountID int64) {
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		AccountID: accountID,
	})
}
