package storefront

import (
	"errors"

	"github.com/shopspring/decimal"

	"artesanato-catalog/internal/domain"
)

// ErrUnknownProduct is returned when a cart action names a product that is
// not in the fixed list.
var ErrUnknownProduct = errors.New("storefront: unknown product")

const placeholderImage = "https://placehold.co/400x500?text=Foto+do+Produto"

var products = []domain.StoreProduct{
	{ID: 1, Name: "Vestido para Boneca (P)", Price: decimal.RequireFromString("39.9"), ImageURL: placeholderImage},
	{ID: 2, Name: "Conjunto Casual para Boneca", Price: decimal.RequireFromString("49.9"), ImageURL: placeholderImage},
	{ID: 3, Name: "Roupa Temática para Boneca", Price: decimal.RequireFromString("59.9"), ImageURL: placeholderImage},
}

// Products returns the storefront's fixed product list.
func Products() []domain.StoreProduct {
	out := make([]domain.StoreProduct, len(products))
	copy(out, products)
	return out
}

// Lookup finds a product of the fixed list by id.
func Lookup(id int) (domain.StoreProduct, error) {
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.StoreProduct{}, ErrUnknownProduct
}

// Cart is the ordered list of products picked during one session. The same
// product may appear more than once. Cart is not safe for concurrent use;
// Sessions serializes access.
type Cart struct {
	items []domain.StoreProduct
}

// AddToCart appends p.
func (c *Cart) AddToCart(p domain.StoreProduct) {
	c.items = append(c.items, p)
}

// Items returns a copy of the cart lines in the order they were added.
func (c *Cart) Items() []domain.StoreProduct {
	out := make([]domain.StoreProduct, len(c.items))
	copy(out, c.items)
	return out
}

// Count is the number of lines in the cart.
func (c *Cart) Count() int { return len(c.items) }

// Total sums the price of every line.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.items {
		total = total.Add(p.Price)
	}
	return total
}

// Summary is what the checkout stub reports back.
type Summary struct {
	Items []domain.StoreProduct
	Count int
	Total decimal.Decimal
}

// Checkout summarizes the cart. Payment is not implemented: no order is
// placed and the cart is left untouched.
func (c *Cart) Checkout() Summary {
	return Summary{Items: c.Items(), Count: c.Count(), Total: c.Total()}
}
