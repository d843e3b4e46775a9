package usecase

import (
	"context"
	"sync"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/shopspring/decimal"
)

// fakeProducts implements ProductLookup
type fakeProducts struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	err      error
	calls    int
}

func newFakeProducts(ps ...domain.Product) *fakeProducts {
	m := make(map[string]*domain.Product, len(ps))
	for i := range ps {
		p := ps[i]
		m[p.ID] = &p
	}
	return &fakeProducts{products: m}
}

func (f *fakeProducts) FindProduct(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products[id], nil
}

// fakeOrderRepo implements OrderRepo
type fakeOrderRepo struct {
	orders      map[string]domain.Order
	createErr   error
	saveErr     error
	createCalls int
	saveCalls   int
}

func newFakeOrderRepo(orders ...domain.Order) *fakeOrderRepo {
	m := make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *domain.Order) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter OrderFilter) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range f.orders {
		if filter.UserID == "" || o.UserID == filter.UserID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) Save(_ context.Context, o *domain.Order) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.orders[o.ID] = *o
	return nil
}

// fakeGateway implements PaymentGateway
type fakeGateway struct {
	intentErr    error
	chargeErr    error
	intentCalls  int
	intentAmount decimal.Decimal
	intentCurr   string
	chargeReq    ChargeRequest
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, currency string) (PaymentIntent, error) {
	f.intentCalls++
	f.intentAmount = amount
	f.intentCurr = currency
	if f.intentErr != nil {
		return PaymentIntent{}, f.intentErr
	}
	return PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: amount, Currency: currency}, nil
}

func (f *fakeGateway) CreateCharge(_ context.Context, req ChargeRequest) (Charge, error) {
	f.chargeReq = req
	if f.chargeErr != nil {
		return Charge{}, f.chargeErr
	}
	return Charge{ID: "ch_test", Amount: req.Amount, Currency: req.Currency, Status: "succeeded", Paid: true}, nil
}

// fakePublisher implements EventPublisher
type fakePublisher struct {
	msgs []OrderEventMsg
	err  error
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, msg OrderEventMsg) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

// fakeIdem implements IdempotencyStore
type fakeIdem struct {
	locks       map[string]bool
	remember    map[string]string
	rememberErr error
	recallErr   error
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: map[string]bool{}, remember: map[string]string{}}
}

func (f *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if f.locks[k] {
		return false, nil
	}
	f.locks[k] = true
	return true, nil
}

func (f *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	if f.rememberErr != nil {
		return f.rememberErr
	}
	f.remember[scope+":"+key] = value
	return nil
}

func (f *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	if f.recallErr != nil {
		return "", false, f.recallErr
	}
	v, ok := f.remember[scope+":"+key]
	return v, ok, nil
}

func (f *fakeIdem) Release(_ context.Context, scope, key string) error {
	delete(f.locks, scope+":"+key)
	return nil
}

// fakeCache implements OrderCache
type fakeCache struct {
	entries map[string]CachedStatus
	sets    int
	setErr  error
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]CachedStatus{}} }

func (f *fakeCache) SetStatus(_ context.Context, orderID string, st CachedStatus) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[orderID] = st
	return nil
}

func (f *fakeCache) GetStatus(_ context.Context, orderID string) (CachedStatus, bool, error) {
	st, ok := f.entries[orderID]
	return st, ok, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	owner    = domain.Actor{ID: "user-1", Role: domain.RoleUser}
	stranger = domain.Actor{ID: "user-2", Role: domain.RoleUser}
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func pendingOrder(id, userID string) domain.Order {
	return domain.Order{
		ID:          id,
		UserID:      userID,
		Items:       []domain.LineItem{{ProductID: "P1", Quantity: 2, Name: "Mug", Price: dec("10.00")}},
		Subtotal:    dec("20.00"),
		Tax:         dec("2"),
		ShippingFee: dec("5"),
		Total:       dec("27.00"),
		Currency:    domain.DefaultCurrency,
		Status:      domain.StatusPending,
	}
}
