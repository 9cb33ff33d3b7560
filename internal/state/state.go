// Package state is the client state store: cart line items, wishlist and UI toggles.
package state

import (
	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// CartItem is one line of the cart.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// State is an immutable view of one client's store. Actions never modify a State
// handed out earlier; they build a new one.
type State struct {
	Cart     []CartItem        `json:"cart"`
	Wishlist []catalog.Product `json:"wishlist"`
	CartOpen bool              `json:"cartOpen"`
}

// Empty returns the initial state.
func Empty() State {
	return State{Cart: []CartItem{}, Wishlist: []catalog.Product{}}
}

// CartItemCount is the sum of quantities across all line items.
func (s State) CartItemCount() int {
	n := 0
	for _, it := range s.Cart {
		n += it.Quantity
	}
	return n
}

// WishlistCount is the number of distinct wishlist entries.
func (s State) WishlistCount() int {
	return len(s.Wishlist)
}

// Subtotal is the sum of unit price times quantity, rounded to cents.
func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Cart {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}

// InWishlist reports whether the product id is on the wishlist.
func (s State) InWishlist(id string) bool {
	for _, p := range s.Wishlist {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s State) cartIndex(id string) int {
	for i, it := range s.Cart {
		if it.ProductID == id {
			return i
		}
	}
	return -1
}

func (s State) addToCart(p catalog.Product) State {
	cart := make([]CartItem, len(s.Cart), len(s.Cart)+1)
	copy(cart, s.Cart)
	if i := s.cartIndex(p.ID); i >= 0 {
		cart[i].Quantity++
	} else {
		cart = append(cart, CartItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1, Image: p.Image})
	}
	s.Cart = cart
	return s
}

func (s State) removeFromCart(id string) State {
	i := s.cartIndex(id)
	if i < 0 {
		return s
	}
	cart := make([]CartItem, 0, len(s.Cart)-1)
	cart = append(cart, s.Cart[:i]...)
	s.Cart = append(cart, s.Cart[i+1:]...)
	return s
}

func (s State) removeOrdered(ordered map[string]int) State {
	cart := make([]CartItem, 0, len(s.Cart))
	for _, it := range s.Cart {
		it.Quantity -= ordered[it.ProductID]
		if it.Quantity > 0 {
			cart = append(cart, it)
		}
	}
	s.Cart = cart
	return s
}

func (s State) addToWishlist(p catalog.Product) State {
	if s.InWishlist(p.ID) {
		return s
	}
	wishlist := make([]catalog.Product, len(s.Wishlist), len(s.Wishlist)+1)
	copy(wishlist, s.Wishlist)
	s.Wishlist = append(wishlist, p)
	return s
}

func (s State) removeFromWishlist(id string) State {
	wishlist := make([]catalog.Product, 0, len(s.Wishlist))
	for _, p := range s.Wishlist {
		if p.ID != id {
			wishlist = append(wishlist, p)
		}
	}
	if len(wishlist) == len(s.Wishlist) {
		return s
	}
	s.Wishlist = wishlist
	return s
}
