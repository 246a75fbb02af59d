// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/lockout"
	"github.com/carterperez-dev/docvault/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Route("/recovery", func(r chi.Router) {
			r.Post("/find", h.FindAccount)
			r.Post("/verify", h.VerifyAnswer)
			r.Post("/reset", h.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/me", h.GetMe)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(
		r.Context(),
		req,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.UnauthorizedError("Invalid email or password"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if token == "" {
		core.NoContent(w)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, profile)
}

func (h *Handler) FindAccount(w http.ResponseWriter, r *http.Request) {
	var req FindAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.FindAccount(r.Context(), req.Email)
	if err != nil {
		h.writeRecoveryError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) VerifyAnswer(w http.ResponseWriter, r *http.Request) {
	var req VerifyAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.VerifyAnswer(
		r.Context(), req.Email, req.Answer,
	); err != nil {
		h.writeRecoveryError(w, err)
		return
	}

	core.OK(w, map[string]bool{"verified": true})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		h.writeRecoveryError(w, err)
		return
	}

	core.OK(w, map[string]bool{"reset": true})
}

func (h *Handler) writeRecoveryError(w http.ResponseWriter, err error) {
	var tma *lockout.TooManyAttemptsError

	switch {
	case errors.As(err, &tma):
		// Clients drive their retry countdown off the numeric field,
		// not the message text.
		core.JSONError(w, core.NewAppError(
			err,
			tma.Error(),
			http.StatusTooManyRequests,
			"TOO_MANY_ATTEMPTS",
		).WithDetail("retry_after_seconds", tma.RemainingSeconds))
	case errors.Is(err, lockout.ErrAttemptFailed):
		core.JSONError(w, core.UnauthorizedError("Incorrect security answer"))
	case errors.Is(err, lockout.ErrPasswordReused):
		core.BadRequest(
			w,
			"New password must differ from recently used passwords",
		)
	case errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.NewAppError(
			err,
			"User not found",
			http.StatusNotFound,
			"NOT_FOUND",
		))
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
