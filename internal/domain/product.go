package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Snapshots written by the browser tool carried price as a bare JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents one registered catalog entry.
// The json tags define the persisted snapshot format, shared with snapshots
// written by the browser tool under the same key.
type Product struct {
	ID          string          `json:"id"`
	Category    string          `json:"categoria"`
	Name        string          `json:"produto"`
	Price       decimal.Decimal `json:"preco"`
	Description string          `json:"descricao"`
	Photo       string          `json:"foto"` // data URI, e.g. data:image/png;base64,...
	CreatedAt   time.Time       `json:"dataCadastro"`
}

// ProductDraft is the unvalidated field set submitted by a user before it
// becomes a Product. Price is kept as the raw text typed into the form.
type ProductDraft struct {
	Category    string `json:"category" validate:"required,max=100"`
	Name        string `json:"name" validate:"required,max=255"`
	Price       string `json:"price" validate:"required,numeric"`
	Description string `json:"description" validate:"max=2000"`
	Photo       string `json:"photo" validate:"required,datauri"`
}

// StoreProduct is an entry of the storefront's fixed product list.
type StoreProduct struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"img"`
}
