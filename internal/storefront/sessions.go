package storefront

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName  = "loja"
	sessionIDKey = "sid"
)

// Sessions maps browser sessions to carts. Carts live in process memory
// only and are gone after a restart.
type Sessions struct {
	cookies sessions.Store

	mu    sync.Mutex
	carts map[string]*Cart
}

// NewSessions keeps the session id in a cookie signed with secret.
func NewSessions(secret []byte) *Sessions {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0, // browser session
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{cookies: cs, carts: make(map[string]*Cart)}
}

// With runs fn with the cart bound to the request's session, creating the
// session (and setting its cookie on w) when needed. Calls for the same
// registry are serialized.
func (s *Sessions) With(w http.ResponseWriter, r *http.Request, fn func(*Cart)) error {
	// A cookie that fails verification yields a fresh session plus an error; start over.
	sess, _ := s.cookies.Get(r, sessionName)

	id, _ := sess.Values[sessionIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[sessionIDKey] = id
		if err := sess.Save(r, w); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[id]
	if !ok {
		cart = &Cart{}
		s.carts[id] = cart
	}
	fn(cart)
	return nil
}

// Len reports how many carts are held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
