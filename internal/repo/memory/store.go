// Package memory is an in-process repo.Store. Transactions run against a copy
// of the state which replaces the live state on commit, so a failed
// transaction leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

type slotKey struct {
	date string
	time string
}

type petLink struct {
	petID    uuid.UUID
	grooming repo.ServiceDetails
	dental   repo.ServiceDetails
}

type appointmentRow struct {
	appt       repo.Appointment
	pets       []petLink
	serviceIDs []int64
}

type state struct {
	users        map[uuid.UUID]repo.User
	phones       map[string]uuid.UUID
	pets         map[uuid.UUID]repo.Pet
	services     map[int64]repo.Service
	slots        map[slotKey]int
	appointments map[uuid.UUID]appointmentRow
	labTests     map[int64]repo.LabTest
	categories   map[int64]repo.Category
	products     map[int64]repo.Product
	records      []repo.MedicalRecord
	usage        []repo.InventoryUsage
}

func newState() *state {
	return &state{
		users:        map[uuid.UUID]repo.User{},
		phones:       map[string]uuid.UUID{},
		pets:         map[uuid.UUID]repo.Pet{},
		services:     map[int64]repo.Service{},
		slots:        map[slotKey]int{},
		appointments: map[uuid.UUID]appointmentRow{},
		labTests:     map[int64]repo.LabTest{},
		categories:   map[int64]repo.Category{},
		products:     map[int64]repo.Product{},
	}
}

// clone copies every table. Rows are replaced, never mutated in place, so
// copying the containers is enough.
func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		phones:       maps.Clone(s.phones),
		pets:         maps.Clone(s.pets),
		services:     maps.Clone(s.services),
		slots:        maps.Clone(s.slots),
		appointments: maps.Clone(s.appointments),
		labTests:     maps.Clone(s.labTests),
		categories:   maps.Clone(s.categories),
		products:     maps.Clone(s.products),
		records:      slices.Clone(s.records),
		usage:        slices.Clone(s.usage),
	}
}

type Store struct {
	*queries
}

var _ repo.Store = (*Store)(nil)

// New returns an empty store with the standard catalog loaded.
func New() *Store {
	st := newState()
	seedCatalog(st)
	return &Store{queries: &queries{mu: &sync.Mutex{}, st: st, now: time.Now}}
}

// NewWithClock is New with a fixed time source for timestamps.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(q repo.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &queries{mu: s.mu, st: s.st.clone(), now: s.now, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// SetStock overwrites a product's stock level.
func (s *Store) SetStock(productID int64, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.st.products[productID]; ok {
		p.Stock = stock
		s.st.products[productID] = p
	}
}

// queries holds the table operations. Outside a transaction each call takes
// the store lock; inside one the lock is already held by WithTx.
type queries struct {
	mu   *sync.Mutex
	st   *state
	now  func() time.Time
	inTx bool
}

func (q *queries) lock() func() {
	if q.inTx {
		return func() {}
	}
	q.mu.Lock()
	return q.mu.Unlock
}

func (q *queries) timestamp() time.Time {
	return q.now().UTC()
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
