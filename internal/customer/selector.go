package customer

import (
	"math/rand/v2"

	"privacy-checkout/internal/model"
)

var predefinedCustomers = []model.Customer{
	{Name: "João Silva Santos", Email: "joao.silva@email.com", Phone: "+5511987654321", Document: "12345678909"},
	{Name: "Maria Oliveira Costa", Email: "maria.oliveira@email.com", Phone: "+5511976543210", Document: "98765432100"},
	{Name: "Carlos Eduardo Lima", Email: "carlos.lima@email.com", Phone: "+5511965432109", Document: "11122233344"},
}

type Selector interface {
	Pick() model.Customer
}

type selectorImpl struct {
	pool []model.Customer
	intn func(n int) int
}

type Option func(*selectorImpl)

// WithIntn replaces the random source; intn must return a value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(s *selectorImpl) {
		s.intn = intn
	}
}

func NewSelector(opts ...Option) Selector {
	s := &selectorImpl{
		pool: predefinedCustomers,
		intn: rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *selectorImpl) Pick() model.Customer {
	return s.pool[s.intn(len(s.pool))]
}

// Pool returns a copy of the synthetic identities.
func Pool() []model.Customer {
	out := make([]model.Customer, len(predefinedCustomers))
	copy(out, predefinedCustomers)
	return out
}
