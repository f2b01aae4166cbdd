package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
	"flightsim/internal/pricing"
	"flightsim/internal/service"
)

// MemoryStore is an in-memory implementation of every store interface.
// One mutex serializes all mutations, which gives ConfirmAtomic and
// CancelAtomic the same all-or-nothing behavior as the Postgres
// transactions. Used by tests and available as a storage backend for
// demos without a database.
type MemoryStore struct {
	mu sync.Mutex

	flights     map[int64]*models.Flight
	demand      map[int64]float64
	holds       map[string]*models.SeatHold
	bookings    map[string]*models.Booking
	fareHistory map[int64][]models.FareHistoryEntry
	users       map[string]*models.User
	emails      []*models.QueuedEmail

	airlines []models.Airline
	airports []models.Airport

	nextID int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights:     make(map[int64]*models.Flight),
		demand:      make(map[int64]float64),
		holds:       make(map[string]*models.SeatHold),
		bookings:    make(map[string]*models.Booking),
		fareHistory: make(map[int64][]models.FareHistoryEntry),
		users:       make(map[string]*models.User),
	}
}

// AddFlight registers a flight, assigning an ID when missing.
func (m *MemoryStore) AddFlight(f models.Flight) *models.Flight {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		m.nextID++
		f.ID = m.nextID
	}
	m.flights[f.ID] = &f
	return &f
}

// AddAirline registers an airline catalog entry.
func (m *MemoryStore) AddAirline(a models.Airline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.airlines = append(m.airlines, a)
}

// AddAirport registers an airport catalog entry.
func (m *MemoryStore) AddAirport(a models.Airport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.airports = append(m.airports, a)
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*models.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flights[id]
	if !ok {
		return nil, apperrors.ErrFlightNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flights := make([]models.Flight, 0, len(m.flights))
	for _, f := range m.flights {
		flights = append(flights, *f)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].Departure.Before(flights[j].Departure) })
	return flights, nil
}

func (m *MemoryStore) Search(ctx context.Context, q models.SearchQuery) ([]models.Flight, error) {
	flights, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := func(f models.Flight) bool {
		if q.Origin != "" && !strings.EqualFold(q.Origin, f.OriginCity) && !strings.EqualFold(q.Origin, f.OriginIATA) {
			return false
		}
		if q.Destination != "" && !strings.EqualFold(q.Destination, f.DestinationCity) && !strings.EqualFold(q.Destination, f.DestinationIATA) {
			return false
		}
		if q.Date != "" && f.Departure.Format("2006-01-02") != q.Date {
			return false
		}
		if q.MinPrice != nil && f.BasePrice < *q.MinPrice {
			return false
		}
		if q.MaxPrice != nil && f.BasePrice > *q.MaxPrice {
			return false
		}
		if q.MinSeats != nil && f.AvailableSeats < *q.MinSeats {
			return false
		}
		return true
	}

	var out []models.Flight
	for _, f := range flights {
		if matches(f) {
			out = append(out, f)
		}
	}

	switch q.Sort {
	case "price":
		sort.Slice(out, func(i, j int) bool { return out[i].BasePrice < out[j].BasePrice })
	case "duration":
		sort.Slice(out, func(i, j int) bool { return out[i].DurationMins < out[j].DurationMins })
	}
	return out, nil
}

func (m *MemoryStore) ListRandom(ctx context.Context, limit int) ([]models.Flight, error) {
	flights, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(flights), func(i, j int) { flights[i], flights[j] = flights[j], flights[i] })
	if len(flights) > limit {
		flights = flights[:limit]
	}
	return flights, nil
}

func (m *MemoryStore) DecrementSeats(ctx context.Context, flightID int64, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flights[flightID]
	if !ok {
		return 0, apperrors.ErrFlightNotFound
	}
	take := n
	if take > f.AvailableSeats {
		take = f.AvailableSeats
	}
	if take < 0 {
		take = 0
	}
	f.AvailableSeats -= take
	return take, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (*models.FlightStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s models.FlightStats
	s.TotalFlights = len(m.flights)
	s.TotalAirlines = len(m.airlines)
	s.TotalAirports = len(m.airports)
	var sum float64
	for _, f := range m.flights {
		s.TotalSeats += f.TotalSeats
		s.AvailableSeats += f.AvailableSeats
		sum += f.BasePrice
		if s.MinBasePrice == 0 || f.BasePrice < s.MinBasePrice {
			s.MinBasePrice = f.BasePrice
		}
		if f.BasePrice > s.MaxBasePrice {
			s.MaxBasePrice = f.BasePrice
		}
	}
	s.OccupiedSeats = s.TotalSeats - s.AvailableSeats
	if s.TotalSeats > 0 {
		s.OccupancyRate = float64(s.OccupiedSeats) / float64(s.TotalSeats) * 100
	}
	if s.TotalFlights > 0 {
		s.AvgBasePrice = sum / float64(s.TotalFlights)
	}
	return &s, nil
}

func (m *MemoryStore) ListAirlines(ctx context.Context) ([]models.Airline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Airline(nil), m.airlines...), nil
}

func (m *MemoryStore) ListAirports(ctx context.Context) ([]models.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Airport(nil), m.airports...), nil
}

func (m *MemoryStore) Get(ctx context.Context, flightID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level, ok := m.demand[flightID]; ok {
		return level, nil
	}
	return pricing.NeutralDemand, nil
}

func (m *MemoryStore) Set(ctx context.Context, flightID int64, level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.demand[flightID] = level
	return nil
}

func (m *MemoryStore) SweepExpired(ctx context.Context, flightID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(flightID, time.Now()), nil
}

func (m *MemoryStore) sweepLocked(flightID int64, now time.Time) int {
	swept := 0
	for token, h := range m.holds {
		if h.FlightID == flightID && !h.ExpiresAt.After(now) {
			delete(m.holds, token)
			swept++
		}
	}
	return swept
}

func (m *MemoryStore) CreateHold(ctx context.Context, flightID int64, seatNumber, token string, expiresAt time.Time) (*models.SeatHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for tok, h := range m.holds {
		if h.FlightID != flightID || h.SeatNumber != seatNumber {
			continue
		}
		if h.ExpiresAt.After(now) {
			return nil, apperrors.ErrSeatConflict
		}
		// A stale hold never blocks a new one.
		delete(m.holds, tok)
	}
	m.nextID++
	hold := &models.SeatHold{
		ID:         m.nextID,
		FlightID:   flightID,
		SeatNumber: seatNumber,
		Token:      token,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}
	m.holds[token] = hold
	cp := *hold
	return &cp, nil
}

func (m *MemoryStore) ValidateHold(ctx context.Context, flightID int64, seatNumber, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[token]
	if !ok || h.FlightID != flightID || h.SeatNumber != seatNumber {
		return apperrors.ErrHoldExpired
	}
	if !h.ExpiresAt.After(time.Now()) {
		delete(m.holds, token)
		return apperrors.ErrHoldExpired
	}
	return nil
}

func (m *MemoryStore) HeldByOther(ctx context.Context, flightID int64, seatNumber, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, h := range m.holds {
		if h.FlightID == flightID && h.SeatNumber == seatNumber && h.Token != token && h.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListActive(ctx context.Context, flightID int64) ([]models.SeatHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var holds []models.SeatHold
	for _, h := range m.holds {
		if h.FlightID == flightID && h.ExpiresAt.After(now) {
			holds = append(holds, *h)
		}
	}
	return holds, nil
}

// ConfirmAtomic mirrors the Postgres transaction under the store mutex.
func (m *MemoryStore) ConfirmAtomic(ctx context.Context, p service.ConfirmParams, charge service.ChargeFunc) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	if p.HoldToken != "" {
		h, ok := m.holds[p.HoldToken]
		if !ok || h.FlightID != p.FlightID || h.SeatNumber != p.SeatNumber || !h.ExpiresAt.After(now) {
			return nil, apperrors.ErrHoldExpired
		}
	} else {
		for _, h := range m.holds {
			if h.FlightID == p.FlightID && h.SeatNumber == p.SeatNumber && h.ExpiresAt.After(now) {
				return nil, apperrors.ErrSeatConflict
			}
		}
	}

	f, ok := m.flights[p.FlightID]
	if !ok {
		return nil, apperrors.ErrFlightNotFound
	}
	if f.AvailableSeats <= 0 {
		return nil, apperrors.ErrSoldOut
	}
	for _, b := range m.bookings {
		if b.FlightID == p.FlightID && b.SeatNumber == p.SeatNumber && b.Status == models.BookingConfirmed {
			return nil, apperrors.ErrSeatConflict
		}
	}

	demand, ok := m.demand[p.FlightID]
	if !ok {
		demand = pricing.NeutralDemand
	}
	price := pricing.Compute(pricing.Inputs{
		BasePrice:      f.BasePrice,
		TotalSeats:     f.TotalSeats,
		AvailableSeats: f.AvailableSeats - 1,
		Departure:      f.Departure,
		DemandLevel:    demand,
		Now:            now,
	})

	if err := charge(price); err != nil {
		return nil, err
	}

	var pnr string
	for attempt := 0; attempt < pnrAttempts; attempt++ {
		candidate := generatePNR(f.AirlineCode)
		if _, exists := m.bookings[candidate]; !exists {
			pnr = candidate
			break
		}
	}
	if pnr == "" {
		return nil, fmt.Errorf("failed to allocate a unique reservation code after %d attempts", pnrAttempts)
	}

	f.AvailableSeats--
	m.nextID++
	booking := &models.Booking{
		ID:             m.nextID,
		PNR:            pnr,
		FlightID:       p.FlightID,
		SeatNumber:     p.SeatNumber,
		PassengerName:  p.PassengerName,
		PassengerEmail: p.PassengerEmail,
		Status:         models.BookingConfirmed,
		BookedPrice:    price,
		PaymentStatus:  "paid",
		BookingDate:    now,
		FlightNumber:   f.FlightNumber,
		AirlineName:    f.AirlineName,
	}
	m.bookings[pnr] = booking
	if p.HoldToken != "" {
		delete(m.holds, p.HoldToken)
	}

	cp := *booking
	return &cp, nil
}

func (m *MemoryStore) CancelAtomic(ctx context.Context, pnr string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[pnr]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	if b.Status == models.BookingCancelled {
		return nil, apperrors.ErrAlreadyCancelled
	}

	b.Status = models.BookingCancelled
	if f, ok := m.flights[b.FlightID]; ok && f.AvailableSeats < f.TotalSeats {
		f.AvailableSeats++
	}

	cp := *b
	return &cp, nil
}

func (m *MemoryStore) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[pnr]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var bookings []models.Booking
	for _, b := range m.bookings {
		if b.PassengerEmail == email {
			bookings = append(bookings, *b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].BookingDate.After(bookings[j].BookingDate) })
	return bookings, nil
}

func (m *MemoryStore) SeatsTaken(ctx context.Context, flightID int64) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := make(map[string]bool)
	for _, b := range m.bookings {
		if b.FlightID == flightID && b.Status == models.BookingConfirmed {
			taken[b.SeatNumber] = true
		}
	}
	return taken, nil
}

func (m *MemoryStore) Record(ctx context.Context, entry *models.FareHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	m.fareHistory[entry.FlightID] = append(m.fareHistory[entry.FlightID], *entry)
	return nil
}

func (m *MemoryStore) ListByFlight(ctx context.Context, flightID int64, limit int) ([]models.FareHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]models.FareHistoryEntry(nil), m.fareHistory[flightID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return nil, fmt.Errorf("user %s: %w", user.Email, apperrors.ErrEmailTaken)
	}
	m.nextID++
	user.UserID = m.nextID
	user.IsActive = true
	user.RegisteredAt = time.Now()
	m.users[user.Email] = user
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) Enqueue(ctx context.Context, toEmail, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.emails = append(m.emails, &models.QueuedEmail{
		ID:        m.nextID,
		ToEmail:   toEmail,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
		Status:    models.EmailPending,
	})
	return nil
}

func (m *MemoryStore) ListPending(ctx context.Context, limit int) ([]models.QueuedEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.QueuedEmail
	for _, e := range m.emails {
		if e.Status == models.EmailPending {
			out = append(out, *e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkSent(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.ID == id {
			now := time.Now()
			e.Status = models.EmailSent
			e.SentAt = &now
			e.Attempts++
			return nil
		}
	}
	return fmt.Errorf("email %d not found", id)
}

func (m *MemoryStore) MarkFailed(ctx context.Context, id int64, attempts, maxAttempts int, sendErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.ID == id {
			e.Attempts++
			e.LastError = &sendErr
			if e.Attempts >= maxAttempts {
				e.Status = models.EmailFailed
			}
			return nil
		}
	}
	return fmt.Errorf("email %d not found", id)
}

func (m *MemoryStore) Retry(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.ID == id && e.Status == models.EmailFailed {
			e.Status = models.EmailPending
			e.Attempts = 0
			e.LastError = nil
			return nil
		}
	}
	return apperrors.ErrEmailNotFound
}

func (m *MemoryStore) ListRecent(ctx context.Context, limit int) ([]models.QueuedEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.QueuedEmail
	for i := len(m.emails) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.emails[i])
	}
	return out, nil
}
