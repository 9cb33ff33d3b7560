package admin

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/abgdnv/storefront/internal/admin/kv"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-playground/validator/v10"
)

type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// Newsletter manages the list of newsletter subscribers.
type Newsletter struct {
	mu       sync.Mutex
	store    kv.Store
	validate *validator.Validate
	now      func() time.Time
}

func NewNewsletter(store kv.Store) *Newsletter {
	return &Newsletter{store: store, validate: web.NewValidator(), now: time.Now}
}

// Subscribe stores email unless an equal address (ignoring case) is already present.
// created reports whether a new subscriber was added.
func (n *Newsletter) Subscribe(ctx context.Context, email string) (created bool, err error) {
	email = strings.TrimSpace(email)
	if err := n.validate.Var(email, "required,email"); err != nil {
		rule := "failed on rule: email"
		if email == "" {
			rule = "failed on rule: required"
		}
		return false, &serrors.ValidationError{Fields: map[string]string{"email": rule}}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	subs, err := n.list(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range subs {
		if strings.EqualFold(s.Email, email) {
			return false, nil
		}
	}
	subs = append(subs, Subscriber{Email: email, SubscribedAt: n.now().UTC()})
	if err := save(ctx, n.store, NewsletterKey, subs); err != nil {
		return false, err
	}
	return true, nil
}

// List returns subscribers in subscription order.
func (n *Newsletter) List(ctx context.Context) ([]Subscriber, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.list(ctx)
}

func (n *Newsletter) list(ctx context.Context) ([]Subscriber, error) {
	subs, _, err := load(ctx, n.store, NewsletterKey, func() []Subscriber { return []Subscriber{} })
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []Subscriber{}
	}
	return subs, nil
}
