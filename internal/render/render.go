package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"artesanato-catalog/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

// FallbackImage is shown when a product photo cannot be loaded.
const FallbackImage = "data:image/svg+xml,%3Csvg xmlns=%22http://www.w3.org/2000/svg%22 width=%22400%22 height=%22300%22%3E" +
	"%3Crect fill=%22%23ddd%22 width=%22400%22 height=%22300%22/%3E" +
	"%3Ctext fill=%22%23999%22 font-family=%22sans-serif%22 font-size=%2220%22 x=%2250%25%22 y=%2250%25%22 text-anchor=%22middle%22 dy=%22.3em%22%3E" +
	"Imagem n%C3%A3o dispon%C3%ADvel%3C/text%3E%3C/svg%3E"

// FormValues echoes the registration fields back after a rejected submission.
type FormValues struct {
	Category    string
	Name        string
	Price       string
	Description string
}

// ConfirmPrompt asks the user to confirm a deletion.
type ConfirmPrompt struct {
	Text      string
	ProductID string
	Filter    string
}

// CatalogPage is everything the registration page shows.
type CatalogPage struct {
	Products   []domain.Product
	Categories []string
	Filter     string
	Preview    string
	Flash      string
	FlashFor   time.Duration
	Alert      string
	Confirm    *ConfirmPrompt
	Form       FormValues
	// FormID is echoed back by the registration form on submit.
	FormID string
}

// StorefrontPage is everything the storefront shows.
type StorefrontPage struct {
	Products []domain.StoreProduct
	Cart     []domain.StoreProduct
	Count    int
	Total    decimal.Decimal
	Notice   string
}

// Renderer executes the embedded page templates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses the templates. Catalog cards format prices for catalogLocale;
// the storefront always uses a dot separator.
func New(catalogLocale language.Tag) (*Renderer, error) {
	cardPrice := NewPriceFormatter(catalogLocale)
	storePrice := NewPriceFormatter(language.English)

	funcs := template.FuncMap{
		"price":         cardPrice.Format,
		"storePrice":    storePrice.Format,
		"photoURL":      photoURL,
		"deleteID":      DeleteControlID,
		"fallbackImage": func() string { return FallbackImage },
		"millis":        func(d time.Duration) int64 { return d.Milliseconds() },
	}
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// DeleteControlID is the id of the delete control rendered for a product.
func DeleteControlID(productID string) string {
	return "delete-" + productID
}

// Catalog writes the registration page.
func (r *Renderer) Catalog(w io.Writer, page CatalogPage) error {
	return r.tmpl.ExecuteTemplate(w, "catalog", page)
}

// Cards writes only the product list markup.
func (r *Renderer) Cards(w io.Writer, products []domain.Product, filter string) error {
	return r.tmpl.ExecuteTemplate(w, "cards", CatalogPage{Products: products, Filter: filter})
}

// Storefront writes the storefront page.
func (r *Renderer) Storefront(w io.Writer, page StorefrontPage) error {
	return r.tmpl.ExecuteTemplate(w, "storefront", page)
}

// photoURL only trusts inline image data; anything else gets the placeholder.
func photoURL(uri string) template.URL {
	if strings.HasPrefix(uri, "data:image/") {
		return template.URL(uri)
	}
	return template.URL(FallbackImage)
}
