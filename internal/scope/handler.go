// AngelaMos | 2026
// handler.go

package scope

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/middleware"
)

type AssignRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required,uuid4"`
	ManagerID  *string `json:"manager_id"  validate:"omitempty,uuid4"`
}

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
	adminOnly, managerOnly func(http.Handler) http.Handler,
) {
	r.Route("/scope", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Put("/assign", h.AssignManager)
			r.Get("/managers", h.ListManagers)
			r.Get("/employees", h.ListEmployees)
		})

		r.Group(func(r chi.Router) {
			r.Use(managerOnly)

			r.Get("/my-employees", h.ListMyEmployees)
		})
	})
}

func (h *Handler) AssignManager(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	actorID := middleware.GetUserID(r.Context())

	err := h.service.AssignManager(
		r.Context(),
		actorID,
		req.EmployeeID,
		req.ManagerID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]bool{"assigned": true})
}

func (h *Handler) ListManagers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListManagers(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, members)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListEmployees(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, members)
}

func (h *Handler) ListMyEmployees(w http.ResponseWriter, r *http.Request) {
	managerID := middleware.GetUserID(r.Context())

	members, err := h.service.ListMyEmployees(r.Context(), managerID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, members)
}
