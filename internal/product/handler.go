package product

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/portifolio/catalog/internal/response"
)

// Handler holds HTTP handlers for product listing and moderation endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new product Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List godoc
//
//	@Summary		List products
//	@Description	Lists product documents. Each filter matches by case-insensitive substring.
//	@Tags			products
//	@Produce		json
//	@Param			id			query		string	false	"product code filter"
//	@Param			descricao	query		string	false	"description filter"
//	@Param			grupo		query		string	false	"group filter"
//	@Success		200	{object}	response.Envelope{data=[]Document}
//	@Failure		500	{object}	response.Envelope
//	@Router			/products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := h.svc.Find(r.Context(), Filter{
		Code:        q.Get("id"),
		Description: q.Get("descricao"),
		Group:       q.Get("grupo"),
	})
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, docs)
}

type createRequest struct {
	Code        string `json:"id"`
	Description string `json:"descricao"`
	Group       string `json:"grupo"`
}

// Create godoc
//
//	@Summary		Register a product
//	@Description	Creates an empty product document for the code. A document that already exists is returned unchanged.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		createRequest	true	"product code, description, and group"
//	@Success		201	{object}	response.Envelope{data=Document}
//	@Failure		400	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		response.BadRequest(w, "id is required")
		return
	}

	doc, err := h.svc.Register(r.Context(), req.Code, req.Description, req.Group)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, doc)
}

type moderateRequest struct {
	ImageIdentifier string `json:"imageIdentifier"`
	Action          string `json:"action"`
}

// Moderate godoc
//
//	@Summary		Approve or reject an image
//	@Description	Applies approve, unapprove, reject, or unreject to one image reference.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code	path		string				true	"product code"
//	@Param			body	body		moderateRequest		true	"image identifier and action"
//	@Success		200	{object}	response.Envelope{data=Document}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/products/{code}/moderate [post]
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.ImageIdentifier == "" || req.Action == "" {
		response.BadRequest(w, "imageIdentifier and action are required")
		return
	}

	doc, err := h.svc.Moderate(r.Context(), code, req.ImageIdentifier, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAction):
			response.BadRequest(w, "invalid action: "+req.Action)
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, ErrImageNotFound):
			response.NotFound(w, "image not found in product")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, doc)
}
