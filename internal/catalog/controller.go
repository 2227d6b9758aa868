package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"artesanato-catalog/internal/domain"
)

// User-facing texts.
const (
	MsgPhotoRequired   = "Por favor, selecione uma foto do produto."
	MsgSubmitted       = "Produto Cadastrado!"
	MsgBusy            = "Aguarde: o cadastro anterior ainda está em andamento."
	MsgStorageFailure  = "Não foi possível salvar o produto. O armazenamento pode estar cheio ou indisponível."
	MsgInvalidFields   = "Verifique os campos: %s."
	MsgInvalidPhoto    = "A foto selecionada não pôde ser usada: %v"
	msgConfirmDeletion = "Tem certeza que deseja excluir o produto \"%s\"?"
)

// DefaultSuccessDelay is how long the success text stays on the submit control.
const DefaultSuccessDelay = 2 * time.Second

// View is the display surface the controller drives.
type View interface {
	RenderList(products []domain.Product, filter string) error
	RenderPreview(dataURI string) error
	ShowTransientMessage(text string, d time.Duration) error
	ResetForm()
	// Alert blocks the user with a message; the form keeps its values.
	Alert(text string)
	Confirm(text string) bool
}

// State of the registration form.
type State int32

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	if s == StateSubmitting {
		return "submitting"
	}
	return "idle"
}

// Submission carries the registration form fields.
type Submission struct {
	// FormID identifies the form instance the fields came from. Submissions
	// of different forms never block each other.
	FormID      string
	Category    string
	Name        string
	Price       string
	Description string
	Photo       *Upload
	// Filter is the category filter active when the form was sent.
	Filter string
}

// Controller binds the registration form, the category filter and the
// per-card delete controls to a Store.
type Controller struct {
	store        *Store
	encoder      *ImageEncoder
	logger       *zap.Logger
	successDelay time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewController wires a controller to an already loaded Store.
func NewController(s *Store, enc *ImageEncoder, logger *zap.Logger) *Controller {
	if enc == nil {
		enc = NewImageEncoder(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:        s,
		encoder:      enc,
		logger:       logger,
		successDelay: DefaultSuccessDelay,
		inFlight:     make(map[string]struct{}),
	}
}

// State reports whether a submission of form formID is in flight.
func (c *Controller) State(formID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[formID]; ok {
		return StateSubmitting
	}
	return StateIdle
}

// begin moves formID to StateSubmitting; false means it already was.
func (c *Controller) begin(formID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[formID]; ok {
		return false
	}
	c.inFlight[formID] = struct{}{}
	return true
}

func (c *Controller) end(formID string) {
	c.mu.Lock()
	delete(c.inFlight, formID)
	c.mu.Unlock()
}

// Start renders the unfiltered list.
func (c *Controller) Start(ctx context.Context, v View) error {
	return c.render(v, "")
}

// Filter re-renders the list restricted to category ("" shows everything).
func (c *Controller) Filter(ctx context.Context, v View, category string) error {
	return c.render(v, category)
}

// Categories lists the values offered by the filter control.
func (c *Controller) Categories() []string {
	return c.store.Categories()
}

// Preview shows the picked file; a nil upload clears the preview.
func (c *Controller) Preview(ctx context.Context, v View, up *Upload) error {
	if up == nil || up.Size == 0 {
		return v.RenderPreview("")
	}
	uri, err := c.encoder.Encode(ctx, up)
	if err != nil {
		_ = v.RenderPreview("")
		return err
	}
	return v.RenderPreview(uri)
}

// Submit registers a product. Each form (sub.FormID) may have only one
// submission in flight; an overlapping one from the same form is rejected
// with ErrSubmissionInProgress. Other forms are unaffected.
func (c *Controller) Submit(ctx context.Context, v View, sub Submission) (domain.Product, error) {
	if !c.begin(sub.FormID) {
		c.logger.Warn("Submission rejected, another one is in progress",
			zap.String("form", sub.FormID), zap.String("name", sub.Name))
		v.Alert(MsgBusy)
		return domain.Product{}, ErrSubmissionInProgress
	}
	defer c.end(sub.FormID)

	if sub.Photo == nil || sub.Photo.Size == 0 {
		v.Alert(MsgPhotoRequired)
		return domain.Product{}, &ValidationError{Fields: []string{"photo"}, Err: ErrPhotoRequired}
	}

	photo, err := c.encoder.Encode(ctx, sub.Photo)
	if err != nil {
		c.alertFailure(v, err)
		return domain.Product{}, err
	}

	product, err := c.store.Add(ctx, domain.ProductDraft{
		Category:    strings.TrimSpace(sub.Category),
		Name:        strings.TrimSpace(sub.Name),
		Price:       sub.Price,
		Description: strings.TrimSpace(sub.Description),
		Photo:       photo,
	})
	if err != nil {
		c.alertFailure(v, err)
		return domain.Product{}, err
	}
	c.logger.Info("Product registered",
		zap.String("id", product.ID),
		zap.String("category", product.Category),
		zap.String("price", product.Price.StringFixed(2)))

	if err := c.render(v, sub.Filter); err != nil {
		return product, err
	}
	v.ResetForm()
	if err := v.RenderPreview(""); err != nil {
		return product, err
	}
	return product, v.ShowTransientMessage(MsgSubmitted, c.successDelay)
}

// Delete asks for confirmation, removes the product and re-renders with the
// same filter. It reports whether the user confirmed.
func (c *Controller) Delete(ctx context.Context, v View, id, filter string) (bool, error) {
	product, ok := c.store.Get(id)
	if !ok {
		// Stale control; nothing to confirm.
		return false, c.render(v, filter)
	}
	if !v.Confirm(fmt.Sprintf(msgConfirmDeletion, product.Name)) {
		return false, nil
	}
	if err := c.store.Remove(ctx, id); err != nil {
		c.alertFailure(v, err)
		return true, err
	}
	c.logger.Info("Product removed", zap.String("id", id))
	return true, c.render(v, filter)
}

func (c *Controller) render(v View, filter string) error {
	return v.RenderList(c.store.Query(filter), filter)
}

func (c *Controller) alertFailure(v View, err error) {
	var ve *ValidationError
	var se *StorageError
	switch {
	case errors.As(err, &ve):
		c.logger.Info("Submission rejected", zap.Strings("fields", ve.Fields), zap.Error(ve.Err))
		switch {
		case errors.Is(ve.Err, ErrPhotoRequired):
			v.Alert(MsgPhotoRequired)
		case len(ve.Fields) == 1 && ve.Fields[0] == "photo":
			v.Alert(fmt.Sprintf(MsgInvalidPhoto, ve.Err))
		default:
			v.Alert(fmt.Sprintf(MsgInvalidFields, strings.Join(ve.Fields, ", ")))
		}
	case errors.As(err, &se):
		c.logger.Error("Snapshot write failed", zap.String("op", se.Op), zap.Error(se.Err))
		v.Alert(MsgStorageFailure)
	default:
		c.logger.Error("Catalog operation failed", zap.Error(err))
		v.Alert(MsgStorageFailure)
	}
}
