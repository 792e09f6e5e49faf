package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/portifolio/catalog/internal/directory"
	"github.com/portifolio/catalog/internal/product"
	"github.com/portifolio/catalog/internal/response"
	"github.com/portifolio/catalog/internal/storage"
)

// Handler holds HTTP handlers for upload, delete, and blob download endpoints.
type Handler struct {
	coord       *Coordinator
	maxFiles    int
	maxFileSize int64
}

// NewHandler creates a new upload Handler with the given batch limits.
func NewHandler(coord *Coordinator, maxFiles int, maxFileSize int64) *Handler {
	return &Handler{coord: coord, maxFiles: maxFiles, maxFileSize: maxFileSize}
}

// UploadBatch godoc
//
//	@Summary		Upload a batch of product images
//	@Description	Stores every file and appends references to the product document, creating it on first upload.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code		path		string	true	"product code"
//	@Param			images		formData	file	true	"image files"
//	@Param			descricao	formData	string	false	"product description (set at creation only)"
//	@Param			grupo		formData	string	false	"product group (set at creation only)"
//	@Success		201	{object}	response.Envelope{data=BatchResult}
//	@Failure		400	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/products/{code}/images [post]
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize*int64(h.maxFiles)+(10<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		response.BadRequest(w, "no files provided")
		return
	}
	if len(headers) > h.maxFiles {
		response.BadRequest(w, fmt.Sprintf("too many files: max %d per batch", h.maxFiles))
		return
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.maxFileSize {
			response.BadRequest(w, fmt.Sprintf("file %q exceeds the %d byte limit", fh.Filename, h.maxFileSize))
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(w, fmt.Sprintf("cannot read file %q", fh.Filename))
			return
		}
		defer f.Close()

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, File{
			Reader:       f,
			OriginalName: fh.Filename,
			ContentType:  contentType,
			Size:         fh.Size,
		})
	}

	res, err := h.coord.UploadBatch(r.Context(),
		code, r.FormValue("descricao"), r.FormValue("grupo"), files)
	if err != nil {
		var batchErr *BatchError
		switch {
		case errors.Is(err, ErrNoFiles):
			response.BadRequest(w, "no files provided")
		case errors.As(err, &batchErr):
			log.Printf("upload batch for %q: %v", code, err)
			response.Error(w, http.StatusInternalServerError, response.KindStorageFailure, batchErr.Error())
		default:
			log.Printf("upload batch for %q: %v", code, err)
			response.InternalError(w)
		}
		return
	}

	response.Created(w, res)
}

// DeleteImage godoc
//
//	@Summary		Delete a product image
//	@Description	Removes the document reference first, then the directory entry and blob.
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code			path		string	true	"product code"
//	@Param			imageIdentifier	path		string	true	"object id or display name"
//	@Success		200	{object}	response.Envelope{data=DeleteResult}
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/products/{code}/images/{imageIdentifier} [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	identifier := chi.URLParam(r, "imageIdentifier")

	res, err := h.coord.DeleteImage(r.Context(), code, identifier)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, product.ErrImageNotFound):
			response.NotFound(w, "image not found in product")
		default:
			log.Printf("delete image %q of %q: %v", identifier, code, err)
			response.InternalError(w)
		}
		return
	}

	response.OK(w, res)
}

type reorderRequest struct {
	Order []string `json:"order"`
}

// Reorder godoc
//
//	@Summary		Reorder a product's images
//	@Description	Replaces the image order with the given identifier sequence.
//	@Tags			uploads
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code	path		string			true	"product code"
//	@Param			body	body		reorderRequest	true	"new image order"
//	@Success		200	{object}	response.Envelope{data=product.Document}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/products/{code}/order [put]
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(req.Order) == 0 {
		response.BadRequest(w, "order is required")
		return
	}

	doc, err := h.coord.ReorderImages(r.Context(), code, req.Order)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrInvalidOrder):
			response.BadRequest(w, err.Error())
		case errors.Is(err, product.ErrNotFound):
			response.NotFound(w, "product not found")
		default:
			log.Printf("reorder images of %q: %v", code, err)
			response.InternalError(w)
		}
		return
	}

	response.OK(w, doc)
}

// ServeBlob godoc
//
//	@Summary		Download a stored blob
//	@Description	Streams the binary payload with its stored content type. Accepts an object id or an original filename (newest match).
//	@Tags			uploads
//	@Produce		octet-stream
//	@Param			objectIdOrName	path	string	true	"object id or original filename"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/blobs/{objectIdOrName} [get]
func (h *Handler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "objectIdOrName")

	entry, rc, err := h.coord.ResolveBlob(r.Context(), identifier)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNotFound), errors.Is(err, storage.ErrNotFound):
			response.NotFound(w, "blob not found")
		default:
			log.Printf("serve blob %q: %v", identifier, err)
			response.InternalError(w)
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(entry.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", entry.OriginalName))
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already out; all we can do is log the broken stream.
		log.Printf("serve blob %q: stream: %v", identifier, err)
	}
}
