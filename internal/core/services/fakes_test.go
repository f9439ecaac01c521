package services

import (
	"context"
	"sort"
	"time"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users         map[uint]*models.User
	nextID        uint
	lastLoginErr  error
	studentMatch  *models.User
	matchErr      error
	lastLoginSeen map[uint]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:         map[uint]*models.User{},
		nextID:        1,
		lastLoginSeen: map[uint]time.Time{},
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	if f.lastLoginErr != nil {
		return f.lastLoginErr
	}
	f.lastLoginSeen[id] = at
	return nil
}

func (f *fakeUserRepo) FindStudentMatch(ctx context.Context, name, studentPhone, parentPhone string) (*models.User, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if f.studentMatch != nil {
		return f.studentMatch, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeRefreshTokenRepo struct {
	tokens map[uint]*models.RefreshToken
	nextID uint
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[uint]*models.RefreshToken{}, nextID: 1}
}

func (f *fakeRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ID = f.nextID
	f.nextID++
	f.tokens[token.ID] = token
	return nil
}

func (f *fakeRefreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRefreshTokenRepo) Revoke(ctx context.Context, id uint) error {
	if t, ok := f.tokens[id]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *fakeRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	now := time.Now()
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeRefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	for id, t := range f.tokens {
		if t.IsExpired() {
			delete(f.tokens, id)
		}
	}
	return nil
}

func (f *fakeRefreshTokenRepo) unrevokedCount(userID uint) int {
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type fakeOrgRepo struct {
	orgs map[string]*models.Org
}

func newFakeOrgRepo(orgs ...*models.Org) *fakeOrgRepo {
	f := &fakeOrgRepo{orgs: map[string]*models.Org{}}
	for _, org := range orgs {
		f.orgs[org.ID] = org
	}
	return f
}

func (f *fakeOrgRepo) GetByID(ctx context.Context, id string) (*models.Org, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return org, nil
}

func (f *fakeOrgRepo) ListActive(ctx context.Context) ([]*models.Org, error) {
	var out []*models.Org
	for _, org := range f.orgs {
		if org.Status == "active" {
			out = append(out, org)
		}
	}
	return out, nil
}

type fakeMembershipRepo struct {
	memberships []*models.OrgMembership
	nextID      uint
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{nextID: 1}
}

func (f *fakeMembershipRepo) Create(ctx context.Context, m *models.OrgMembership) error {
	m.ID = f.nextID
	f.nextID++
	f.memberships = append(f.memberships, m)
	return nil
}

func (f *fakeMembershipRepo) GetByOrgAndUser(ctx context.Context, orgID string, userID uint) (*models.OrgMembership, error) {
	for _, m := range f.memberships {
		if m.OrgID == orgID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMembershipRepo) FindByUserAndStatus(ctx context.Context, userID uint, status string) ([]*models.OrgMembership, error) {
	var out []*models.OrgMembership
	for _, m := range f.memberships {
		if m.UserID == userID && m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrgID < out[j].OrgID })
	return out, nil
}

func (f *fakeMembershipRepo) ExistsByUserAndStatus(ctx context.Context, userID uint, status string) (bool, error) {
	ms, _ := f.FindByUserAndStatus(ctx, userID, status)
	return len(ms) > 0, nil
}

type fakeParentLinkRepo struct {
	activeParents map[uint]bool
	err           error
}

func newFakeParentLinkRepo() *fakeParentLinkRepo {
	return &fakeParentLinkRepo{activeParents: map[uint]bool{}}
}

func (f *fakeParentLinkRepo) ExistsActiveByParent(ctx context.Context, parentUserID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.activeParents[parentUserID], nil
}

type fakeSubscriptionRepo struct {
	subscriptions []*models.Subscription
	nextID        uint
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{nextID: 1}
}

func (f *fakeSubscriptionRepo) WithTx(tx *gorm.DB) repositories.SubscriptionRepository {
	return f
}

func (f *fakeSubscriptionRepo) GetCurrentByUser(ctx context.Context, userID uint) (*models.Subscription, error) {
	var current *models.Subscription
	for _, s := range f.subscriptions {
		if s.UserID != userID {
			continue
		}
		if current == nil || s.EndAt.After(current.EndAt) {
			current = s
		}
	}
	if current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return current, nil
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, s *models.Subscription) error {
	s.ID = f.nextID
	f.nextID++
	f.subscriptions = append(f.subscriptions, s)
	return nil
}

func (f *fakeSubscriptionRepo) Update(ctx context.Context, s *models.Subscription) error {
	for i, existing := range f.subscriptions {
		if existing.ID == s.ID {
			f.subscriptions[i] = s
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakePaymentRepo struct {
	payments []*models.Payment
	nextID   uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1}
}

func (f *fakePaymentRepo) WithTx(tx *gorm.DB) repositories.PaymentRepository {
	return f
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	f.payments = append(f.payments, p)
	return nil
}

func (f *fakePaymentRepo) List(ctx context.Context, offset, limit int) ([]*models.Payment, int64, error) {
	total := int64(len(f.payments))
	if offset >= len(f.payments) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(f.payments) {
		end = len(f.payments)
	}
	return f.payments[offset:end], total, nil
}

func (f *fakePaymentRepo) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders map[uint]*models.Order
	items  map[uint][]*models.OrderItem
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint]*models.Order{}, items: map[uint][]*models.OrderItem{}}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) repositories.OrderRepository {
	return f
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetItems(ctx context.Context, orderID uint) ([]*models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, id uint) (bool, error) {
	order, ok := f.orders[id]
	if !ok || order.Status != "pending" {
		return false, nil
	}
	order.Status = "paid"
	return true, nil
}

type fakeProductRepo struct {
	products map[uint]*models.Product
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: map[uint]*models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) WithTx(tx *gorm.DB) repositories.ProductRepository {
	return f
}

func (f *fakeProductRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.Product, error) {
	var out []*models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	p, ok := f.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

type fakeShipmentRepo struct {
	paidOrders map[uint]bool
}

func newFakeShipmentRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{paidOrders: map[uint]bool{}}
}

func (f *fakeShipmentRepo) WithTx(tx *gorm.DB) repositories.ShipmentRepository {
	return f
}

func (f *fakeShipmentRepo) MarkPaidByOrder(ctx context.Context, orderID uint) error {
	f.paidOrders[orderID] = true
	return nil
}

type fakeFlagRepo struct {
	flags map[string]*models.FeatureFlag
}

func newFakeFlagRepo(flags ...*models.FeatureFlag) *fakeFlagRepo {
	f := &fakeFlagRepo{flags: map[string]*models.FeatureFlag{}}
	for _, flag := range flags {
		f.flags[flag.FlagKey] = flag
	}
	return f
}

func (f *fakeFlagRepo) GetByKey(ctx context.Context, key string) (*models.FeatureFlag, error) {
	flag, ok := f.flags[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return flag, nil
}

func (f *fakeFlagRepo) List(ctx context.Context) ([]*models.FeatureFlag, error) {
	var out []*models.FeatureFlag
	for _, flag := range f.flags {
		out = append(out, flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlagKey < out[j].FlagKey })
	return out, nil
}

func (f *fakeFlagRepo) Save(ctx context.Context, flag *models.FeatureFlag) error {
	f.flags[flag.FlagKey] = flag
	return nil
}

// fakeTxManager runs the function directly; the fakes ignore the tx handle.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
