package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"artesanato-catalog/internal/domain"
	"artesanato-catalog/internal/store"
)

// SnapshotKey is the fixed key the whole collection is persisted under.
const SnapshotKey = "artesanato_produtos"

// Store owns the insertion-ordered product collection and mirrors it to a
// KeyValueStorer as one JSON array after every mutation.
//
// There is no locking across processes: two writers sharing a medium race and
// the last write wins.
type Store struct {
	mu       sync.Mutex
	kv       store.KeyValueStorer
	key      string
	now      func() time.Time
	validate *validator.Validate

	products []domain.Product
	lastID   int64
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now, used for ids and createdAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithKey overrides SnapshotKey.
func WithKey(key string) StoreOption {
	return func(s *Store) { s.key = key }
}

// NewStore creates an empty Store over kv. Call Load before serving.
func NewStore(kv store.KeyValueStorer, opts ...StoreOption) *Store {
	s := &Store{
		kv:       kv,
		key:      SnapshotKey,
		now:      time.Now,
		validate: newValidator(),
		products: []domain.Product{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names ("photo") rather than Go field names ("Photo").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads the persisted snapshot and replaces the in-memory collection.
// A missing snapshot yields an empty collection; malformed data is a StorageError.
func (s *Store) Load(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return nil, &StorageError{Op: "load", Err: err}
	}

	products := []domain.Product{}
	if err == nil {
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, &StorageError{Op: "load", Err: fmt.Errorf("decode snapshot: %w", err)}
		}
		if products == nil { // stored literal null
			products = []domain.Product{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.lastID = 0
	for _, p := range products {
		if id, err := strconv.ParseInt(p.ID, 10, 64); err == nil && id > s.lastID {
			s.lastID = id
		}
	}
	return cloneProducts(products), nil
}

// Add validates draft, turns it into a Product and persists the collection.
// If the write fails the append is rolled back.
func (s *Store) Add(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	draft.Price = normalizePrice(draft.Price)
	if err := s.validateDraft(draft); err != nil {
		return domain.Product{}, err
	}
	price, err := decimal.NewFromString(draft.Price)
	if err != nil {
		return domain.Product{}, &ValidationError{Fields: []string{"price"}, Err: err}
	}
	if price.IsNegative() {
		return domain.Product{}, &ValidationError{Fields: []string{"price"}, Err: errors.New("price must not be negative")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	product := domain.Product{
		ID:          s.nextID(now),
		Category:    draft.Category,
		Name:        draft.Name,
		Price:       price,
		Description: draft.Description,
		Photo:       draft.Photo,
		CreatedAt:   now.UTC(),
	}

	s.products = append(s.products, product)
	if err := s.persist(ctx); err != nil {
		s.products = s.products[:len(s.products)-1]
		return domain.Product{}, err
	}
	return product, nil
}

// Remove deletes the product with id and persists the collection.
// Removing an unknown id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.products
	kept := make([]domain.Product, 0, len(previous))
	for _, p := range previous {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	if err := s.persist(ctx); err != nil {
		s.products = previous
		return err
	}
	return nil
}

// Query returns the whole collection when category is empty, otherwise the
// products whose category matches exactly (case-sensitive).
func (s *Store) Query(category string) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" {
		return cloneProducts(s.products)
	}
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists the distinct categories in first-seen order.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.products))
	var out []string
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Get returns the product with id.
func (s *Store) Get(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Ping checks the storage medium.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.products)
	if err != nil {
		return &StorageError{Op: "save", Err: fmt.Errorf("encode snapshot: %w", err)}
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// nextID derives an id from the creation time in milliseconds, bumped past
// the last issued id so two products created in the same millisecond differ.
func (s *Store) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Store) validateDraft(draft domain.ProductDraft) error {
	err := s.validate.Struct(draft)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &ValidationError{Fields: fields, Err: err}
	}
	return &ValidationError{Err: err}
}

// normalizePrice accepts "12,50" as well as "12.50".
func normalizePrice(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}
