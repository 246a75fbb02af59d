// AngelaMos | 2026
// handler.go

package document

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/docvault/internal/core"
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
	employeeOnly, managerOnly func(http.Handler) http.Handler,
) {
	r.Route("/documents", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(employeeOnly)

			r.Post("/", h.Create)
			r.Get("/mine", h.ListMine)
			r.Patch("/{documentID}", h.Update)
			r.Delete("/{documentID}", h.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(managerOnly)

			r.Get("/review", h.ListReview)
			r.Get("/review/pending", h.ListPendingReview)
			r.Post("/{documentID}/approve", h.Approve)
			r.Post("/{documentID}/reject", h.Reject)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ownerID := middleware.GetUserID(r.Context())

	doc, err := h.service.Create(r.Context(), ownerID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, ToDocumentResponse(doc))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	docs, err := h.service.ListMine(r.Context(), ownerID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToDocumentResponseList(docs))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	callerID := middleware.GetUserID(r.Context())

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	doc, err := h.service.Update(r.Context(), callerID, docID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToDocumentResponse(doc))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	callerID := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), callerID, docID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListReview(w http.ResponseWriter, r *http.Request) {
	managerID := middleware.GetUserID(r.Context())

	items, err := h.service.ListReview(r.Context(), managerID, false)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToReviewItemResponseList(items))
}

func (h *Handler) ListPendingReview(w http.ResponseWriter, r *http.Request) {
	managerID := middleware.GetUserID(r.Context())

	items, err := h.service.ListReview(r.Context(), managerID, true)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToReviewItemResponseList(items))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	managerID := middleware.GetUserID(r.Context())

	// The comment is optional, so an empty body is fine.
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil &&
		!errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	doc, err := h.service.Approve(r.Context(), managerID, docID, req.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToDocumentResponse(doc))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	managerID := middleware.GetUserID(r.Context())

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	doc, err := h.service.Reject(r.Context(), managerID, docID, req.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToDocumentResponse(doc))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "document")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
