package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
)

// memState содержимое фейковой базы; копируется для отката транзакции
type memState struct {
	listings      map[int64]model.Listing
	bookings      map[int64]model.Booking
	addons        map[int64][]model.BookingAddon
	payments      map[int64]model.Payment
	earnings      map[int64]model.OwnerEarning
	counters      map[string]int
	notifications []model.Notification
	nextID        int64
}

func (s *memState) clone() *memState {
	c := &memState{
		listings:      make(map[int64]model.Listing, len(s.listings)),
		bookings:      make(map[int64]model.Booking, len(s.bookings)),
		addons:        make(map[int64][]model.BookingAddon, len(s.addons)),
		payments:      make(map[int64]model.Payment, len(s.payments)),
		earnings:      make(map[int64]model.OwnerEarning, len(s.earnings)),
		counters:      make(map[string]int, len(s.counters)),
		notifications: append([]model.Notification(nil), s.notifications...),
		nextID:        s.nextID,
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.addons {
		c.addons[k] = append([]model.BookingAddon(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.earnings {
		c.earnings[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

// memDB реализует repository.TxManager в памяти.
// Транзакции выполняются строго по очереди, ошибка откатывает все изменения.
type memDB struct {
	mu    sync.Mutex
	state *memState
	// failEnqueue имитирует сбой записи в outbox
	failEnqueue bool
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		listings: map[int64]model.Listing{},
		bookings: map[int64]model.Booking{},
		addons:   map[int64][]model.BookingAddon{},
		payments: map[int64]model.Payment{},
		earnings: map[int64]model.OwnerEarning{},
		counters: map[string]int{},
		nextID:   1000,
	}}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.state.clone()
	if err := fn(ctx, db.repos(true)); err != nil {
		db.state = snapshot
		return err
	}
	return nil
}

func (db *memDB) Repos() repository.Repos {
	return db.repos(false)
}

func (db *memDB) repos(inTx bool) repository.Repos {
	r := &memRepo{db: db, inTx: inTx}
	return repository.Repos{
		Listings:      memListings{r},
		Bookings:      memBookings{r},
		Payments:      memPayments{r},
		Earnings:      memEarnings{r},
		Notifications: memNotifications{r},
	}
}

func (db *memDB) addListing(l model.Listing) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.listings[l.ID] = l
}

// addBooking кладёт бронирование напрямую, минуя сервис
func (db *memDB) addBooking(b model.Booking) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.nextID++
	if b.ID == 0 {
		b.ID = db.state.nextID
	}
	b.Version = 1
	db.state.bookings[b.ID] = b
	return b.ID
}

func (db *memDB) booking(id int64) model.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.bookings[id]
}

func (db *memDB) paymentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.payments)
}

func (db *memDB) earningCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.earnings)
}

func (db *memDB) bookingCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.bookings)
}

func (db *memDB) notificationsFor(userID int64) []model.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Notification
	for _, n := range db.state.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type memRepo struct {
	db   *memDB
	inTx bool
}

// guard вне транзакции берёт блокировку на время одного вызова
func (r *memRepo) guard() func() {
	if r.inTx {
		return func() {}
	}
	r.db.mu.Lock()
	return r.db.mu.Unlock
}

func (r *memRepo) st() *memState {
	return r.db.state
}

func (r *memRepo) id() int64 {
	r.st().nextID++
	return r.st().nextID
}

type memListings struct{ *memRepo }

func (m memListings) GetByID(_ context.Context, id int64) (*model.Listing, error) {
	defer m.guard()()
	l, ok := m.st().listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m memListings) GetByIDForUpdate(ctx context.Context, id int64) (*model.Listing, error) {
	return m.GetByID(ctx, id)
}

func (m memListings) GetByIDs(_ context.Context, ids []int64) ([]*model.Listing, error) {
	defer m.guard()()
	var out []*model.Listing
	for _, id := range ids {
		if l, ok := m.st().listings[id]; ok {
			out = append(out, &l)
		}
	}
	return out, nil
}

type memBookings struct{ *memRepo }

func (m memBookings) Create(_ context.Context, b *model.Booking) error {
	defer m.guard()()
	b.ID = m.id()
	b.Version = 1
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	for i := range b.Addons {
		b.Addons[i].ID = m.id()
		b.Addons[i].BookingID = b.ID
	}
	m.st().addons[b.ID] = append([]model.BookingAddon(nil), b.Addons...)
	stored := *b
	stored.Addons = nil
	m.st().bookings[b.ID] = stored
	return nil
}

func (m memBookings) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	defer m.guard()()
	b, ok := m.st().bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m memBookings) GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m memBookings) Update(_ context.Context, b *model.Booking) error {
	defer m.guard()()
	current, ok := m.st().bookings[b.ID]
	if !ok || current.Version != b.Version {
		return repository.ErrStaleBooking
	}
	b.Version++
	b.UpdatedAt = time.Now()
	stored := *b
	stored.Addons = nil
	stored.Payment = nil
	m.st().bookings[b.ID] = stored
	return nil
}

func (m memBookings) GetAddons(_ context.Context, bookingID int64) ([]model.BookingAddon, error) {
	defer m.guard()()
	return append([]model.BookingAddon(nil), m.st().addons[bookingID]...), nil
}

func (m memBookings) HasOverlap(_ context.Context, tractorID int64, start, end time.Time, statuses []model.BookingStatus) (bool, error) {
	defer m.guard()()
	for _, b := range m.st().bookings {
		if b.TractorID != tractorID || !statusIn(b.Status, statuses) {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m memBookings) CountInPostalArea(_ context.Context, postalArea string, statuses []model.BookingStatus) (int, error) {
	defer m.guard()()
	count := 0
	for _, b := range m.st().bookings {
		l, ok := m.st().listings[b.TractorID]
		if ok && l.PostalArea == postalArea && statusIn(b.Status, statuses) {
			count++
		}
	}
	return count, nil
}

func (m memBookings) ListByFarmer(_ context.Context, farmerID int64) ([]*model.Booking, error) {
	return m.list(func(b model.Booking) bool { return b.FarmerID == farmerID }), nil
}

func (m memBookings) ListByOwner(_ context.Context, ownerID int64) ([]*model.Booking, error) {
	return m.list(func(b model.Booking) bool { return b.OwnerID == ownerID }), nil
}

func (m memBookings) list(match func(model.Booking) bool) []*model.Booking {
	defer m.guard()()
	var out []*model.Booking
	for _, b := range m.st().bookings {
		if match(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type memPayments struct{ *memRepo }

func (m memPayments) GetByBookingID(_ context.Context, bookingID int64) (*model.Payment, error) {
	defer m.guard()()
	p, ok := m.st().payments[bookingID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memPayments) NextReceiptSequence(_ context.Context, day time.Time) (int, error) {
	defer m.guard()()
	key := day.UTC().Format("20060102")
	m.st().counters[key]++
	return m.st().counters[key], nil
}

func (m memPayments) Create(_ context.Context, p *model.Payment) error {
	defer m.guard()()
	if _, ok := m.st().payments[p.BookingID]; ok {
		return repository.ErrPaymentExists
	}
	for _, existing := range m.st().payments {
		if existing.ReceiptNumber == p.ReceiptNumber {
			return fmt.Errorf("duplicate receipt %s", p.ReceiptNumber)
		}
	}
	p.ID = m.id()
	p.CreatedAt = time.Now()
	m.st().payments[p.BookingID] = *p
	return nil
}

type memEarnings struct{ *memRepo }

func (m memEarnings) GetByBookingID(_ context.Context, bookingID int64) (*model.OwnerEarning, error) {
	defer m.guard()()
	e, ok := m.st().earnings[bookingID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m memEarnings) Create(_ context.Context, e *model.OwnerEarning) error {
	defer m.guard()()
	if _, ok := m.st().earnings[e.BookingID]; ok {
		return fmt.Errorf("duplicate earning for booking %d", e.BookingID)
	}
	e.ID = m.id()
	m.st().earnings[e.BookingID] = *e
	return nil
}

type memNotifications struct{ *memRepo }

func (m memNotifications) Enqueue(_ context.Context, n *model.Notification) error {
	defer m.guard()()
	if m.db.failEnqueue {
		return fmt.Errorf("outbox unavailable")
	}
	n.ID = m.id()
	m.st().notifications = append(m.st().notifications, *n)
	return nil
}

func (m memNotifications) ClaimPending(_ context.Context, limit int, maxAttempts int) ([]*model.Notification, error) {
	defer m.guard()()
	var out []*model.Notification
	for i := range m.st().notifications {
		n := m.st().notifications[i]
		if n.DeliveredAt == nil && n.Attempts < maxAttempts && len(out) < limit {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (m memNotifications) MarkDelivered(_ context.Context, id int64, at time.Time, sinks []string) error {
	defer m.guard()()
	for i := range m.st().notifications {
		if m.st().notifications[i].ID == id {
			m.st().notifications[i].DeliveredAt = &at
			m.st().notifications[i].DeliveredSinks = sinks
			m.st().notifications[i].Attempts++
		}
	}
	return nil
}

func (m memNotifications) MarkFailed(_ context.Context, id int64, reason string, sinks []string) error {
	defer m.guard()()
	for i := range m.st().notifications {
		if m.st().notifications[i].ID == id {
			m.st().notifications[i].DeliveredSinks = sinks
			m.st().notifications[i].Attempts++
			m.st().notifications[i].LastError = &reason
		}
	}
	return nil
}

func statusIn(s model.BookingStatus, set []model.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// staticSettings настройки платформы без базы
type staticSettings map[string]decimal.Decimal

func (s staticSettings) GetDecimalSetting(_ context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return def, nil
}
