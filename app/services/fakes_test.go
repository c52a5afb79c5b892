package services

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/app/repositories"
	"github.com/vendora/vendora/pkg/payment"
)

// In-memory fakes for the store interfaces. The order fake reproduces the
// conditional-update semantics of the real repository so the state machine
// tests exercise the same at-most-once behaviour.

// ─── users ────────────────────────────────────────────────────────────────────

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[primitive.ObjectID]models.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, name string, p models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Name = name
	u.Profile = p
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Password = hash
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Verified = true
	f.users[id] = u
	return nil
}

// ─── products ─────────────────────────────────────────────────────────────────

type fakeProductStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product

	decrements int
	restores   int
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[primitive.ObjectID]models.Product{}}
}

func (f *fakeProductStore) add(name string, price float64, stock int64) models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Product{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Price: price,
		Stock: stock,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProductStore) setPrice(id primitive.ObjectID, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.Price = price
	f.products[id] = p
}

func (f *fakeProductStore) setOwner(id, shopkeeperID primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.ShopkeeperID = shopkeeperID
	f.products[id] = p
}

func (f *fakeProductStore) stockOf(id primitive.ObjectID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func (f *fakeProductStore) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductStore) List(_ context.Context, _ repositories.ProductFilter) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductStore) Update(_ context.Context, id, shopkeeperID primitive.ObjectID, set bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.ShopkeeperID != shopkeeperID {
		return models.ErrNotFound
	}
	if v, ok := set["name"].(string); ok {
		p.Name = v
	}
	if v, ok := set["description"].(string); ok {
		p.Description = v
	}
	if v, ok := set["price"].(float64); ok {
		p.Price = v
	}
	if v, ok := set["category"].(string); ok {
		p.Category = v
	}
	if v, ok := set["stock"].(int64); ok {
		p.Stock = v
	}
	if v, ok := set["imageUrl"].(string); ok {
		p.ImageURL = v
	}
	f.products[id] = p
	return nil
}

func (f *fakeProductStore) Delete(_ context.Context, id, shopkeeperID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.ShopkeeperID != shopkeeperID {
		return models.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) IncrementStock(_ context.Context, id, shopkeeperID primitive.ObjectID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.ShopkeeperID != shopkeeperID {
		return models.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return models.ErrNotFound
	}
	p.Stock += delta
	f.products[id] = p
	return nil
}

func (f *fakeProductStore) DecrementStock(_ context.Context, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrements++
	for _, it := range items {
		if p, ok := f.products[it.ProductID]; ok {
			p.Stock -= it.Quantity
			f.products[it.ProductID] = p
		}
	}
	return nil
}

func (f *fakeProductStore) RestoreStock(_ context.Context, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restores++
	for _, it := range items {
		if p, ok := f.products[it.ProductID]; ok {
			p.Stock += it.Quantity
			f.products[it.ProductID] = p
		}
	}
	return nil
}

// ─── carts ────────────────────────────────────────────────────────────────────

type fakeCartStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID][]models.CartItem
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[primitive.ObjectID][]models.CartItem{}}
}

func (f *fakeCartStore) Get(_ context.Context, userID primitive.ObjectID) (models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.carts[userID]
	if items == nil {
		items = []models.CartItem{}
	}
	return models.Cart{UserID: userID, Items: items}, nil
}

func (f *fakeCartStore) Save(_ context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = items
	return nil
}

func (f *fakeCartStore) Clear(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = []models.CartItem{}
	return nil
}

// ─── orders ───────────────────────────────────────────────────────────────────

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[primitive.ObjectID]models.Order{}}
}

func (f *fakeOrderStore) Create(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = primitive.NewObjectID()
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderStore) FindForUser(_ context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.UserID != userID {
		return models.Order{}, models.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID primitive.ObjectID, _, _ int64) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderStore) List(_ context.Context, _, _ int64) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderStore) SetPaymentSessionID(_ context.Context, id primitive.ObjectID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != models.StatusPending {
		return models.ErrNotFound
	}
	o.PaymentSessionID = sessionID
	f.orders[id] = o
	return nil
}

// cas flips status only when the current status matches, like the real
// repository's conditional FindOneAndUpdate.
func (f *fakeOrderStore) cas(id primitive.ObjectID, userID *primitive.ObjectID, from, to string) (models.Order, error) {
	if !models.CanTransition(from, to) {
		return models.Order{}, fmt.Errorf("order status %s cannot move to %s", from, to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return models.Order{}, models.ErrNotFound
	}
	if userID != nil && o.UserID != *userID {
		return models.Order{}, models.ErrNotFound
	}
	o.Status = to
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	return f.cas(id, nil, models.StatusPending, models.StatusPaid)
}

func (f *fakeOrderStore) MarkShipped(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	return f.cas(id, nil, models.StatusPaid, models.StatusShipped)
}

func (f *fakeOrderStore) CancelPendingForUser(_ context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return f.cas(id, &userID, models.StatusPending, models.StatusCancelled)
}

func (f *fakeOrderStore) CancelPaidForUser(_ context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return f.cas(id, &userID, models.StatusPaid, models.StatusCancelled)
}

func (f *fakeOrderStore) statusOf(id primitive.ObjectID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

// ─── notifications and tokens ────────────────────────────────────────────────

type fakeNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = primitive.NewObjectID()
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotificationStore) ListByRole(_ context.Context, role string, _, _ int64) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.items {
		if n.TargetRole == role {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context, role string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, item := range f.items {
		if item.TargetRole == role && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].TargetRole == role {
			f.items[i].IsRead = true
		}
	}
	return nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.Token // keyed by kind + ":" + tokenId
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]models.Token{}}
}

func (f *fakeTokenStore) Create(_ context.Context, t *models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = primitive.NewObjectID()
	f.tokens[t.Kind+":"+t.TokenID] = *t
	return nil
}

func (f *fakeTokenStore) Find(_ context.Context, tokenID, kind string) (models.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[kind+":"+tokenID]
	if !ok {
		return models.Token{}, models.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokenStore) Consume(_ context.Context, tokenID, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := kind + ":" + tokenID
	if _, ok := f.tokens[key]; !ok {
		return models.ErrNotFound
	}
	delete(f.tokens, key)
	return nil
}

func (f *fakeTokenStore) RevokeAll(_ context.Context, userID primitive.ObjectID, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID && t.Kind == kind {
			delete(f.tokens, k)
		}
	}
	return nil
}

// ─── mailer, notifier, payment provider ──────────────────────────────────────

type sentMail struct {
	To      []string
	Subject string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (f *fakeMailer) Send(to []string, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject})
	return nil
}

type notifierEvent struct {
	Kind       string
	Title      string
	TargetRole string
	OrderID    primitive.ObjectID
}

// fakeNotifier records one entry per delivered audience leg.
type fakeNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (f *fakeNotifier) OrderEvent(_ context.Context, in OrderEventInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.SellerTitle != "" {
		f.events = append(f.events, notifierEvent{
			Kind: in.Kind, Title: in.SellerTitle,
			TargetRole: models.RoleShopkeeper, OrderID: in.Order.ID,
		})
	}
	if in.BuyerTitle != "" {
		f.events = append(f.events, notifierEvent{
			Kind: in.Kind, Title: in.BuyerTitle,
			TargetRole: models.RoleConsumer, OrderID: in.Order.ID,
		})
	}
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeNotifier) forRole(role string) []notifierEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notifierEvent
	for _, e := range f.events {
		if e.TargetRole == role {
			out = append(out, e)
		}
	}
	return out
}

type fakeProvider struct {
	mu        sync.Mutex
	sessions  int
	refunds   []string
	refundErr error
	event     payment.Event
	status    payment.SessionStatus
}

func (f *fakeProvider) CreateSession(_ context.Context, in payment.SessionInput) (payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	return payment.Session{
		ID:  "cs_test_" + in.OrderID,
		URL: "https://checkout.example.com/" + in.OrderID,
	}, nil
}

func (f *fakeProvider) VerifyWebhook(_ []byte, signature string) (payment.Event, error) {
	if signature == "bad" {
		return payment.Event{}, payment.ErrInvalidSignature
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.event, nil
}

func (f *fakeProvider) SessionStatus(_ context.Context, _ string) (payment.SessionStatus, error) {
	return f.status, nil
}

func (f *fakeProvider) Refund(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunds = append(f.refunds, sessionID)
	return nil
}
