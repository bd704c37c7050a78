package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// SandboxOrder is a deterministic mock order issued when the gateway runs
// in sandbox mode. It never exists in production.
type SandboxOrder struct {
	OrderID   string
	PaymentID string
	Amount    int64
	Currency  string
	Status    string
	Notes     map[string]string
	CreatedAt time.Time
}

type SandboxOrderRepository struct {
	cache *cache.Cache
}

func NewSandboxOrderRepository() *SandboxOrderRepository {
	// Sandbox orders live for a day; purge sweep every hour.
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &SandboxOrderRepository{
		cache: c,
	}
}

func (r *SandboxOrderRepository) Save(order *SandboxOrder) {
	r.cache.Set(order.OrderID, order, cache.DefaultExpiration)
	if order.PaymentID != "" {
		r.cache.Set(order.PaymentID, order, cache.DefaultExpiration)
	}
}

func (r *SandboxOrderRepository) Get(id string) (*SandboxOrder, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*SandboxOrder), true
	}
	return nil, false
}

func (r *SandboxOrderRepository) Delete(id string) {
	r.cache.Delete(id)
}
