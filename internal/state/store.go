package state

import (
	"sync"

	"github.com/abgdnv/storefront/internal/catalog"
)

// Subscriber observes every state produced by a mutation.
// It must not call the store's actions.
type Subscriber func(State)

// Store is the single writer of one client's State. Every action notifies all
// subscribers synchronously, in mutation order, before it returns.
type Store struct {
	// pubMu serializes mutation plus notification; it is always taken before mu.
	pubMu sync.Mutex

	mu     sync.RWMutex
	state  State
	subs   map[uint64]Subscriber
	nextID uint64
}

// NewStore creates a store holding the empty state.
func NewStore() *Store {
	return &Store{state: Empty(), subs: make(map[uint64]Subscriber)}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// AddToCart increments the line item for p or appends a new one with quantity one.
func (s *Store) AddToCart(p catalog.Product) State {
	return s.apply(func(st State) State { return st.addToCart(p) })
}

// RemoveFromCart deletes the line item with the given product id, if present.
func (s *Store) RemoveFromCart(id string) State {
	return s.apply(func(st State) State { return st.removeFromCart(id) })
}

// ClearCart empties the cart.
func (s *Store) ClearCart() State {
	return s.apply(func(st State) State {
		st.Cart = []CartItem{}
		return st
	})
}

// RemoveOrdered subtracts ordered quantities, keyed by product id, from the cart.
// Lines left with no quantity are dropped; anything added after the order was built stays.
func (s *Store) RemoveOrdered(ordered map[string]int) State {
	return s.apply(func(st State) State { return st.removeOrdered(ordered) })
}

// AddToWishlist adds p unless its id is already present.
func (s *Store) AddToWishlist(p catalog.Product) State {
	return s.apply(func(st State) State { return st.addToWishlist(p) })
}

// RemoveFromWishlist removes the entry with the given id, if present.
func (s *Store) RemoveFromWishlist(id string) State {
	return s.apply(func(st State) State { return st.removeFromWishlist(id) })
}

// ToggleCart flips the cart drawer visibility.
func (s *Store) ToggleCart() State {
	return s.apply(func(st State) State {
		st.CartOpen = !st.CartOpen
		return st
	})
}

func (s *Store) apply(mutate func(State) State) State {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	next := mutate(s.state)
	s.state = next
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}
