package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"artesanato-catalog/internal/catalog"
	"artesanato-catalog/internal/domain"
)

// HTTPHandler serves the JSON API over the catalog store.
type HTTPHandler struct {
	store   *catalog.Store
	logger  *zap.Logger
	maxBody int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies. Create bodies
// are bounded by the base64 size of a maxPhotoBytes photo plus the text fields.
func NewHTTPHandler(s *catalog.Store, maxPhotoBytes int64, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = catalog.DefaultMaxPhotoBytes
	}
	return &HTTPHandler{
		store:   s,
		logger:  logger,
		maxBody: int64(base64.StdEncoding.EncodedLen(int(maxPhotoBytes))) + multipartOverhead,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithCatalogError maps catalog errors onto status codes.
func (h *HTTPHandler) respondWithCatalogError(w http.ResponseWriter, err error, op string) {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		h.respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed: " + ve.Err.Error(), Fields: ve.Fields})
	case catalog.IsStorage(err):
		h.logger.Error("Catalog storage failure", zap.String("op", op), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to persist catalog snapshot")
	default:
		h.logger.Error("Catalog operation failed", zap.String("op", op), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// --- Product Handlers ---

// ListResponse wraps list payloads.
type ListResponse struct {
	Data       []domain.Product `json:"data"`
	Category   string           `json:"category,omitempty"`
	TotalItems int              `json:"total_items"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	products := h.store.Query(category)
	h.respondWithJSON(w, http.StatusOK, ListResponse{Data: products, Category: category, TotalItems: len(products)})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	product, ok := h.store.Get(productID)
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.store.Categories()
	if categories == nil {
		categories = []string{}
	}
	h.respondWithJSON(w, http.StatusOK, map[string][]string{"data": categories})
}

// CreateProduct accepts a ProductDraft whose photo is already a data URI.
func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	defer r.Body.Close()

	var input domain.ProductDraft
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondWithError(w, http.StatusRequestEntityTooLarge, "Request body exceeds the photo size limit")
			return
		}
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	created, err := h.store.Add(r.Context(), input)
	if err != nil {
		h.respondWithCatalogError(w, err, "create")
		return
	}
	h.logger.Info("Product created via API", zap.String("id", created.ID))
	h.respondWithJSON(w, http.StatusCreated, created)
}

// DeleteProduct answers 204 whether or not the product existed.
func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if err := h.store.Remove(r.Context(), productID); err != nil {
		h.respondWithCatalogError(w, err, "delete")
		return
	}
	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Route Registration ---

// RegisterRoutes sets up the JSON API routes.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/categories", h.ListCategories)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Delete("/", h.DeleteProduct)
		})
	})
}
