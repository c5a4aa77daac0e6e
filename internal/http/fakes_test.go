package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/travel-agency/internal/domain"
	"github.com/robertarktes/travel-agency/internal/idempotency"
)

// memStore is an in-memory stand-in for the Postgres repository.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]domain.User
	packages map[int64]domain.Package
	bookings map[int64]domain.Booking
	reviews  map[int64]domain.Review
	staff    map[int64]domain.Staff

	dashboardErr error
	createCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]domain.User{},
		packages: map[int64]domain.Package{},
		bookings: map[int64]domain.Booking{},
		reviews:  map[int64]domain.Review{},
		staff:    map[int64]domain.Staff{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

func (s *memStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return domain.User{}, domain.ErrUsernameTaken
		}
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *memStore) sortedPackages(keep func(domain.Package) bool) []domain.Package {
	out := []domain.Package{}
	for _, p := range s.packages {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListPackages(ctx context.Context) ([]domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedPackages(func(domain.Package) bool { return true }), nil
}

func (s *memStore) GetPackage(ctx context.Context, id int64) (domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	return p, nil
}

func (s *memStore) SearchPackages(ctx context.Context, q domain.PackageSearch) ([]domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sortedPackages(func(p domain.Package) bool { return p.Slot >= q.TotalPeople })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (s *memStore) AvailablePackages(ctx context.Context, f domain.AvailableFilter) ([]domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedPackages(func(p domain.Package) bool {
		return p.Slot > 0 && (f.MaxPrice == nil || p.Price <= *f.MaxPrice)
	}), nil
}

func (s *memStore) CreatePackage(ctx context.Context, p domain.Package) (domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.packages {
		if existing.Name == p.Name {
			return domain.Package{}, domain.ErrPackageExists
		}
	}
	p.ID = s.id()
	s.packages[p.ID] = p
	return p, nil
}

func (s *memStore) UpdatePackage(ctx context.Context, id int64, u domain.PackageUpdate) (domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Empty() {
		return domain.Package{}, domain.ErrNoFieldsToApply
	}
	p, ok := s.packages[id]
	if !ok {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Slot != nil {
		p.Slot = *u.Slot
	}
	s.packages[id] = p
	return p, nil
}

func (s *memStore) DeletePackage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[id]; !ok {
		return domain.ErrPackageNotFound
	}
	for _, b := range s.bookings {
		if b.PackageID == id {
			return domain.ErrPackageInUse
		}
	}
	delete(s.packages, id)
	return nil
}

func (s *memStore) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	p, ok := s.packages[b.PackageID]
	if !ok {
		return domain.Booking{}, domain.ErrPackageNotFound
	}
	if p.Slot < b.TotalPeople {
		return domain.Booking{}, domain.ErrNotEnoughSlots
	}
	if _, ok := s.users[b.UserID]; !ok {
		return domain.Booking{}, domain.ErrUserNotFound
	}
	p.Slot -= b.TotalPeople
	s.packages[p.ID] = p
	b.ID = s.id()
	s.bookings[b.ID] = b
	return b, nil
}

func (s *memStore) CancelBooking(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	delete(s.bookings, id)
	p := s.packages[b.PackageID]
	p.Slot += b.TotalPeople
	s.packages[p.ID] = p
	return nil
}

func (s *memStore) ListBookings(ctx context.Context) ([]domain.BookingDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.BookingDetails{}
	for _, b := range s.bookings {
		out = append(out, domain.BookingDetails{Booking: b, UserName: s.users[b.UserID].Username})
	}
	return out, nil
}

func (s *memStore) ListBookingsByUser(ctx context.Context, userID int64) ([]domain.UserBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.UserBooking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, domain.UserBooking{BookingID: b.ID, BookingDate: b.Date, TotalPeople: b.TotalPeople, PackageID: b.PackageID})
		}
	}
	return out, nil
}

func (s *memStore) UpsertReview(ctx context.Context, rv domain.Review) (domain.Review, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[rv.PackageID]; !ok {
		return domain.Review{}, false, domain.ErrPackageNotFound
	}
	for id, existing := range s.reviews {
		if existing.UserID == rv.UserID && existing.PackageID == rv.PackageID {
			rv.ID = id
			s.reviews[id] = rv
			return rv, false, nil
		}
	}
	rv.ID = s.id()
	s.reviews[rv.ID] = rv
	return rv, true, nil
}

func (s *memStore) ListReviews(ctx context.Context) ([]domain.ReviewDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.ReviewDetails{}
	for _, rv := range s.reviews {
		out = append(out, domain.ReviewDetails{Review: rv})
	}
	return out, nil
}

func (s *memStore) DeleteReview(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *memStore) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Staff{}
	for _, st := range s.staff {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) CreateStaff(ctx context.Context, st domain.Staff) (domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.staff {
		if existing.Phone == st.Phone {
			return domain.Staff{}, domain.ErrPhoneTaken
		}
	}
	st.ID = s.id()
	s.staff[st.ID] = st
	return st, nil
}

func (s *memStore) UpdateStaff(ctx context.Context, id int64, u domain.StaffUpdate) (domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Empty() {
		return domain.Staff{}, domain.ErrNoFieldsToApply
	}
	st, ok := s.staff[id]
	if !ok {
		return domain.Staff{}, domain.ErrStaffNotFound
	}
	if u.Name != nil {
		st.Name = *u.Name
	}
	if u.Role != nil {
		st.Role = *u.Role
	}
	if u.Phone != nil {
		st.Phone = *u.Phone
	}
	s.staff[id] = st
	return st, nil
}

func (s *memStore) DeleteStaff(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.staff[id]; !ok {
		return domain.ErrStaffNotFound
	}
	delete(s.staff, id)
	return nil
}

func (s *memStore) Availability(ctx context.Context) (domain.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboardErr != nil {
		return domain.Availability{}, s.dashboardErr
	}
	var slots, booked int64
	for _, p := range s.packages {
		slots += int64(p.Slot)
	}
	for _, b := range s.bookings {
		booked += int64(b.TotalPeople)
	}
	return domain.NewAvailability(int64(len(s.packages)), slots, booked), nil
}

func (s *memStore) MonthlyRevenue(ctx context.Context, now time.Time) ([]domain.MonthlyRevenue, error) {
	if s.dashboardErr != nil {
		return nil, s.dashboardErr
	}
	return []domain.MonthlyRevenue{{Month: domain.MonthLabel(now), Revenue: 1500}}, nil
}

func (s *memStore) MonthlyBookings(ctx context.Context, now time.Time) ([]domain.MonthlyBookings, error) {
	if s.dashboardErr != nil {
		return nil, s.dashboardErr
	}
	return []domain.MonthlyBookings{{Period: domain.MonthLabel(now), Count: 3}}, nil
}

func (s *memStore) stores() Stores {
	return Stores{
		Users:     s,
		Packages:  s,
		Bookings:  s,
		Reviews:   s,
		Staff:     s,
		Dashboard: s,
		Health:    s,
	}
}

// memIdempotency mirrors the Redis-backed store: one response per key, one holder at a time.
type memIdempotency struct {
	mu           sync.Mutex
	responses    map[string]idempotency.Response
	fingerprints map[string]string
	inFlight     map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{
		responses:    map[string]idempotency.Response{},
		fingerprints: map[string]string{},
		inFlight:     map[string]bool{},
	}
}

func (m *memIdempotency) Begin(ctx context.Context, key, fingerprint string) (*idempotency.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resp, ok := m.responses[key]; ok {
		if m.fingerprints[key] != fingerprint {
			return nil, idempotency.ErrKeyReused
		}
		return &idempotency.Claim{Replay: &resp, Fingerprint: fingerprint}, nil
	}
	if m.inFlight[key] {
		return nil, idempotency.ErrInFlight
	}
	m.inFlight[key] = true
	return &idempotency.Claim{Fingerprint: fingerprint, Owner: key}, nil
}

func (m *memIdempotency) End(ctx context.Context, key string, claim *idempotency.Claim, resp *idempotency.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if claim == nil || claim.Replay != nil {
		return nil
	}
	if resp != nil {
		m.responses[key] = *resp
		m.fingerprints[key] = claim.Fingerprint
	}
	delete(m.inFlight, key)
	return nil
}

type stubLimiter struct {
	hits  map[string]int
	err   error
}

func (l *stubLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.hits == nil {
		l.hits = map[string]int{}
	}
	l.hits[key]++
	return l.hits[key] <= rate, nil
}

var errDatabaseDown = errors.New("connection refused")
