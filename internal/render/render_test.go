package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"artesanato-catalog/internal/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	r, err := New(language.BrazilianPortuguese)
	require.NoError(t, err, "templates should parse")
	return r
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:          "1700000000000",
		Category:    "roupas",
		Name:        "Vestido",
		Price:       decimal.RequireFromString("1234.5"),
		Description: "Vestido de chita",
		Photo:       "data:image/png;base64,iVBORw0KGgo=",
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCards_PriceAndDeleteControl(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Cards(&buf, []domain.Product{sampleProduct()}, ""))
	out := buf.String()

	assert.Contains(t, out, "R$ 1234,50")
	assert.Contains(t, out, `id="delete-1700000000000"`)
	assert.Contains(t, out, `action="/produtos/1700000000000/excluir"`)
	assert.Contains(t, out, `class="product-category">roupas</span>`)
	assert.Contains(t, out, "data:image/png;base64,iVBORw0KGgo")
	assert.NotContains(t, out, "emptyMessage")
}

func TestCards_EscapesUserText(t *testing.T) {
	r := newTestRenderer(t)
	p := sampleProduct()
	p.Name = `<script>alert("x")</script>`
	p.Category = `<b>roupas</b>`
	p.Description = `<img src=x onerror=alert(1)>`
	var buf bytes.Buffer

	require.NoError(t, r.Cards(&buf, []domain.Product{p}, ""))
	out := buf.String()

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>")
	assert.NotContains(t, out, "<img src=x")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestCards_FallbackImage(t *testing.T) {
	r := newTestRenderer(t)
	p := sampleProduct()
	p.Photo = "javascript:alert(1)"
	var buf bytes.Buffer

	require.NoError(t, r.Cards(&buf, []domain.Product{p}, ""))
	out := buf.String()

	assert.NotContains(t, out, "javascript:alert")
	assert.Contains(t, out, "onerror=")
	assert.Contains(t, out, "Imagem n%C3%A3o dispon%C3%ADvel")
}

func TestCards_EmptyList(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Cards(&buf, nil, "roupas"))

	assert.Contains(t, buf.String(), `id="emptyMessage"`)
	assert.NotContains(t, buf.String(), "product-card")
}

func TestCatalogPage(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	err := r.Catalog(&buf, CatalogPage{
		Products:   []domain.Product{sampleProduct()},
		Categories: []string{"roupas", "acessórios"},
		Filter:     "roupas",
		Flash:      "Produto Cadastrado!",
		FlashFor:   2 * time.Second,
		Alert:      "Por favor, selecione uma foto do produto.",
		Form:       FormValues{Name: `"quoted"`},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, `role="alert">Por favor, selecione uma foto do produto.</div>`)
	assert.Contains(t, out, "Produto Cadastrado!")
	assert.Contains(t, out, `data-revert-after="2000"`)
	assert.Contains(t, out, `<option value="roupas" selected>roupas</option>`)
	assert.Contains(t, out, `value="&#34;quoted&#34;"`)
	assert.Equal(t, 1, strings.Count(out, "product-card\""))
}

func TestCatalogPage_FlashRevertsRegisterButton(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Catalog(&buf, CatalogPage{Flash: "Produto Cadastrado!", FlashFor: 2 * time.Second}))
	out := buf.String()

	assert.Contains(t, out, `<button id="submitProduct" type="submit" class="btn btn-primary btn-success" data-revert-after="2000"`)
	assert.Contains(t, out, `document.getElementById('submitProduct')`)
	assert.NotContains(t, out, `querySelector('#productForm button[type="submit"]')`)
	assert.Equal(t, 1, strings.Count(out, `id="submitProduct"`))
	assert.Less(t, strings.Index(out, `formaction="/produtos/preview"`), strings.Index(out, `id="submitProduct"`),
		"the preview button comes first, so the script must not pick the first submit button")
}

func TestCatalogPage_ConfirmPrompt(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	err := r.Catalog(&buf, CatalogPage{Confirm: &ConfirmPrompt{
		Text:      `Tem certeza que deseja excluir o produto "Vestido"?`,
		ProductID: "42",
		Filter:    "roupas",
	}})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, `role="alertdialog"`)
	assert.Contains(t, out, `name="confirmar" value="1"`)
	assert.Contains(t, out, `action="/produtos/42/excluir"`)
}

func TestStorefrontPage(t *testing.T) {
	r := newTestRenderer(t)
	products := []domain.StoreProduct{
		{ID: 1, Name: "Vestido para Boneca (P)", Price: decimal.RequireFromString("39.9")},
		{ID: 2, Name: "Conjunto Casual para Boneca", Price: decimal.RequireFromString("49.9")},
	}
	var buf bytes.Buffer

	err := r.Storefront(&buf, StorefrontPage{
		Products: products,
		Cart:     []domain.StoreProduct{products[1], products[1]},
		Count:    2,
		Total:    decimal.RequireFromString("99.8"),
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "R$ 49.90")
	assert.Contains(t, out, `<span id="cartTotal">R$ 99.80</span>`)
	assert.Contains(t, out, `<span id="cartCount" class="cart-count">2</span>`)
	assert.Contains(t, out, "Finalizar compra")
}

func TestStorefrontPage_EmptyCart(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Storefront(&buf, StorefrontPage{}))

	assert.Contains(t, buf.String(), "Seu carrinho está vazio.")
	assert.NotContains(t, buf.String(), "Finalizar compra")
}
