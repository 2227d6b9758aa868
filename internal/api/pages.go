package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"artesanato-catalog/internal/catalog"
	"artesanato-catalog/internal/domain"
	"artesanato-catalog/internal/render"
	"artesanato-catalog/internal/storefront"
)

// multipartOverhead is added to the photo limit for the text fields.
const multipartOverhead = 1 << 20

// formIDField carries the id of a rendered registration form.
const formIDField = "form_id"

// pageView collects what the controller asks to show into a CatalogPage.
// One pageView lives for one request.
type pageView struct {
	page      render.CatalogPage
	rendered  bool
	confirmed bool
	deleteID  string
}

func (v *pageView) RenderList(products []domain.Product, filter string) error {
	v.page.Products = products
	v.page.Filter = filter
	v.rendered = true
	return nil
}

func (v *pageView) RenderPreview(dataURI string) error {
	v.page.Preview = dataURI
	return nil
}

func (v *pageView) ShowTransientMessage(text string, d time.Duration) error {
	v.page.Flash = text
	v.page.FlashFor = d
	return nil
}

func (v *pageView) ResetForm() {
	v.page.Form = render.FormValues{}
}

func (v *pageView) Alert(text string) {
	v.page.Alert = text
}

// Confirm answers from the request. Without an explicit confirmation the
// page carries a prompt whose form repeats the request with confirmar=1.
func (v *pageView) Confirm(text string) bool {
	if v.confirmed {
		return true
	}
	v.page.Confirm = &render.ConfirmPrompt{Text: text, ProductID: v.deleteID, Filter: v.page.Filter}
	return false
}

// PageHandler serves the registration page and the storefront.
type PageHandler struct {
	controller *catalog.Controller
	renderer   *render.Renderer
	sessions   *storefront.Sessions
	logger     *zap.Logger
	maxUpload  int64
}

// NewPageHandler creates a PageHandler. maxPhotoBytes bounds multipart bodies.
func NewPageHandler(c *catalog.Controller, r *render.Renderer, s *storefront.Sessions, maxPhotoBytes int64, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = catalog.DefaultMaxPhotoBytes
	}
	return &PageHandler{
		controller: c,
		renderer:   r,
		sessions:   s,
		logger:     logger,
		maxUpload:  maxPhotoBytes + multipartOverhead,
	}
}

// --- Catalog page ---

func (h *PageHandler) CatalogPage(w http.ResponseWriter, r *http.Request) {
	v := &pageView{}
	if err := h.controller.Filter(r.Context(), v, r.URL.Query().Get("categoria")); err != nil {
		h.logger.Error("Failed to build catalog page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.writeCatalog(w, http.StatusOK, v)
}

func (h *PageHandler) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.logger.Info("Rejected registration form", zap.Error(err))
		v := &pageView{}
		v.Alert(formErrorMessage(err))
		h.finishCatalog(w, r, http.StatusBadRequest, v, "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sub := catalog.Submission{
		Category:    r.FormValue("categoria"),
		Name:        r.FormValue("produto"),
		Price:       r.FormValue("preco"),
		Description: r.FormValue("descricao"),
		Filter:      r.FormValue("filtro"),
		FormID:      r.FormValue(formIDField),
	}
	if sub.FormID == "" {
		// Clients that skip the rendered form still get their own guard.
		sub.FormID = uuid.NewString()
	}
	v := &pageView{}
	v.page.FormID = sub.FormID
	v.page.Form = render.FormValues{
		Category:    sub.Category,
		Name:        sub.Name,
		Price:       sub.Price,
		Description: sub.Description,
	}

	photo, closePhoto, err := formUpload(r, "foto")
	if err != nil {
		h.logger.Warn("Failed to open uploaded photo", zap.Error(err))
	}
	defer closePhoto()
	sub.Photo = photo

	_, err = h.controller.Submit(r.Context(), v, sub)
	h.finishCatalog(w, r, statusFor(err), v, sub.Filter)
}

func (h *PageHandler) PreviewPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	v := &pageView{}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		v.Alert(formErrorMessage(err))
		h.finishCatalog(w, r, http.StatusBadRequest, v, "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	v.page.FormID = r.FormValue(formIDField)
	v.page.Form = render.FormValues{
		Category:    r.FormValue("categoria"),
		Name:        r.FormValue("produto"),
		Price:       r.FormValue("preco"),
		Description: r.FormValue("descricao"),
	}
	photo, closePhoto, err := formUpload(r, "foto")
	if err != nil {
		h.logger.Warn("Failed to open uploaded photo", zap.Error(err))
	}
	defer closePhoto()

	status := http.StatusOK
	if err := h.controller.Preview(r.Context(), v, photo); err != nil {
		v.Alert("A foto selecionada não pôde ser usada.")
		status = statusFor(err)
	}
	h.finishCatalog(w, r, status, v, r.FormValue("filtro"))
}

func (h *PageHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	filter := r.PostFormValue("categoria")
	v := &pageView{
		deleteID:  chi.URLParam(r, "productId"),
		confirmed: r.PostFormValue("confirmar") == "1",
	}
	v.page.Filter = filter

	_, err := h.controller.Delete(r.Context(), v, v.deleteID, filter)
	h.finishCatalog(w, r, statusFor(err), v, filter)
}

// finishCatalog renders the list if the controller has not, then writes the page.
func (h *PageHandler) finishCatalog(w http.ResponseWriter, r *http.Request, status int, v *pageView, filter string) {
	if !v.rendered {
		if err := h.controller.Filter(r.Context(), v, filter); err != nil {
			h.logger.Error("Failed to render product list", zap.Error(err))
		}
	}
	h.writeCatalog(w, status, v)
}

func (h *PageHandler) writeCatalog(w http.ResponseWriter, status int, v *pageView) {
	v.page.Categories = h.controller.Categories()
	if v.page.FormID == "" {
		v.page.FormID = uuid.NewString()
	}
	var buf bytes.Buffer
	if err := h.renderer.Catalog(&buf, v.page); err != nil {
		h.logger.Error("Failed to execute catalog template", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

// --- Storefront ---

func (h *PageHandler) StorefrontPage(w http.ResponseWriter, r *http.Request) {
	h.serveStorefront(w, r, http.StatusOK, nil)
}

func (h *PageHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil {
		h.serveStorefront(w, r, http.StatusBadRequest, func(_ *storefront.Cart) string {
			return "Produto inválido."
		})
		return
	}
	product, err := storefront.Lookup(id)
	if err != nil {
		h.serveStorefront(w, r, http.StatusNotFound, func(_ *storefront.Cart) string {
			return "Produto não encontrado."
		})
		return
	}
	h.serveStorefront(w, r, http.StatusOK, func(c *storefront.Cart) string {
		c.AddToCart(product)
		return product.Name + " adicionado ao carrinho."
	})
}

func (h *PageHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.serveStorefront(w, r, http.StatusOK, func(c *storefront.Cart) string {
		summary := c.Checkout()
		if summary.Count == 0 {
			return "Seu carrinho está vazio."
		}
		h.logger.Info("Checkout requested",
			zap.Int("items", summary.Count),
			zap.String("total", summary.Total.StringFixed(2)))
		return "Pagamento ainda não disponível. Entre em contato para concluir seu pedido."
	})
}

// serveStorefront runs act against the session cart, then renders the page.
func (h *PageHandler) serveStorefront(w http.ResponseWriter, r *http.Request, status int, act func(*storefront.Cart) string) {
	page := render.StorefrontPage{Products: storefront.Products()}
	err := h.sessions.With(w, r, func(c *storefront.Cart) {
		if act != nil {
			page.Notice = act(c)
		}
		page.Cart = c.Items()
		page.Count = c.Count()
		page.Total = c.Total()
	})
	if err != nil {
		h.logger.Error("Failed to bind storefront session", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Storefront(&buf, page); err != nil {
		h.logger.Error("Failed to execute storefront template", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

// --- Route Registration ---

// RegisterRoutes sets up the HTML routes.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.CatalogPage)
	r.Route("/produtos", func(r chi.Router) {
		r.Post("/", h.SubmitProduct)
		r.Post("/preview", h.PreviewPhoto)
		r.Post("/{productId}/excluir", h.DeleteProduct)
	})
	r.Route("/loja", func(r chi.Router) {
		r.Get("/", h.StorefrontPage)
		r.Post("/carrinho/{productId}", h.AddToCart)
		r.Post("/finalizar", h.Checkout)
	})
}

// --- Helpers ---

// formUpload opens the named file field. A missing file yields a nil upload.
// The returned func is always safe to call.
func formUpload(r *http.Request, field string) (*catalog.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &catalog.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}, func() { _ = file.Close() }, nil
}

func formErrorMessage(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "O arquivo enviado é grande demais."
	}
	return "Não foi possível ler o formulário enviado."
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, catalog.ErrSubmissionInProgress):
		return http.StatusConflict
	case catalog.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
