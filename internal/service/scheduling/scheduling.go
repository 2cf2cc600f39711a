package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/pawcare/vetclinic_backend/config"
	"github.com/pawcare/vetclinic_backend/internal/repo"
)

// SlotLabelLayout formats slot labels, e.g. "9:00 AM".
const SlotLabelLayout = "3:04 PM"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Config struct {
	Opening     string // "15:04"
	LastBooking string // "15:04", the last slot that may be booked
	SlotMinutes int
	Capacity    int
	Location    *time.Location
	Now         func() time.Time
}

func ConfigFromClinic(c config.ClinicConfig) Config {
	return Config{
		Opening:     c.Opening,
		LastBooking: c.LastBooking,
		SlotMinutes: c.SlotMinutes,
		Capacity:    c.SlotCapacity,
		Location:    c.Location(),
	}
}

type SlotAvailability struct {
	Time      string `json:"time"`
	Booked    int    `json:"booked"`
	Max       int    `json:"max"`
	Remaining int    `json:"remaining"`
}

// SlotCounter reads booked seats per slot label for a date.
type SlotCounter interface {
	SlotCounts(ctx context.Context, date string) (map[string]int, error)
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Slots() []string
	Capacity() int
	Today() string

	// ValidateDate applies the weekly closure and booking window. Customers
	// must book after today; staff may book today.
	ValidateDate(date string, sameDayAllowed bool) error
	ValidateTime(label string) error

	Availability(ctx context.Context, date string) ([]SlotAvailability, error)
	Remaining(ctx context.Context, date string) (map[string]int, error)

	// SlotFull builds the rejection for a full (date, label) from current counts.
	SlotFull(ctx context.Context, date, label string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	slots    []string
	valid    map[string]struct{}
	capacity int
	loc      *time.Location
	now      func() time.Time
	counter  SlotCounter
}

func New(cfg Config, counter SlotCounter) (Service, error) {
	open, err := time.Parse("15:04", cfg.Opening)
	if err != nil {
		return nil, fmt.Errorf("parse opening: %w", err)
	}
	last, err := time.Parse("15:04", cfg.LastBooking)
	if err != nil {
		return nil, fmt.Errorf("parse last booking: %w", err)
	}
	if cfg.SlotMinutes <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %d", cfg.SlotMinutes)
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("slot capacity must be positive, got %d", cfg.Capacity)
	}
	if last.Before(open) {
		return nil, fmt.Errorf("last booking %s is before opening %s", cfg.LastBooking, cfg.Opening)
	}

	s := &schedulingService{
		valid:    map[string]struct{}{},
		capacity: cfg.Capacity,
		loc:      cfg.Location,
		now:      cfg.Now,
		counter:  counter,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}

	step := time.Duration(cfg.SlotMinutes) * time.Minute
	for t := open; !t.After(last); t = t.Add(step) {
		label := t.Format(SlotLabelLayout)
		s.slots = append(s.slots, label)
		s.valid[label] = struct{}{}
	}

	return s, nil
}

func (s *schedulingService) Slots() []string {
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *schedulingService) Capacity() int {
	return s.capacity
}

func (s *schedulingService) Today() string {
	return s.now().In(s.loc).Format(repo.DateLayout)
}

func (s *schedulingService) parseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(repo.DateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (s *schedulingService) ValidateDate(date string, sameDayAllowed bool) error {
	d, err := s.parseDate(date)
	if err != nil {
		return err
	}
	if d.Weekday() == time.Sunday {
		return ErrClosedDay
	}

	// Both sides are YYYY-MM-DD, so string order is calendar order.
	today := s.Today()
	if sameDayAllowed {
		if date < today {
			return ErrDateInPast
		}
		return nil
	}
	if date <= today {
		return ErrDateNotInFuture
	}
	return nil
}

func (s *schedulingService) ValidateTime(label string) error {
	if _, ok := s.valid[label]; !ok {
		return ErrInvalidTimeSlot
	}
	return nil
}

func (s *schedulingService) Availability(ctx context.Context, date string) ([]SlotAvailability, error) {
	d, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	if d.Weekday() == time.Sunday {
		return nil, ErrClosedDay
	}

	counts, err := s.counter.SlotCounts(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("slot counts: %w", err)
	}

	out := make([]SlotAvailability, 0, len(s.slots))
	for _, label := range s.slots {
		booked := counts[label]
		out = append(out, SlotAvailability{
			Time:      label,
			Booked:    booked,
			Max:       s.capacity,
			Remaining: max(s.capacity-booked, 0),
		})
	}
	return out, nil
}

func (s *schedulingService) Remaining(ctx context.Context, date string) (map[string]int, error) {
	counts, err := s.counter.SlotCounts(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("slot counts: %w", err)
	}
	out := make(map[string]int, len(s.slots))
	for _, label := range s.slots {
		out[label] = max(s.capacity-counts[label], 0)
	}
	return out, nil
}

func (s *schedulingService) SlotFull(ctx context.Context, date, label string) error {
	counts, err := s.counter.SlotCounts(ctx, date)
	if err != nil {
		return fmt.Errorf("slot counts: %w", err)
	}
	remaining := make(map[string]int, len(s.slots))
	for _, l := range s.slots {
		remaining[l] = max(s.capacity-counts[l], 0)
	}
	return &SlotFullError{
		Date:      date,
		Time:      label,
		Booked:    counts[label],
		Max:       s.capacity,
		Remaining: remaining,
	}
}
