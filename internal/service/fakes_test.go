package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/queue"
	"github.com/1wflores/amenity-reservations/internal/repository"
)

const testOffset = -5 * time.Hour

var (
	testZone = booking.NewZone(testOffset)
	testNow  = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	resident = model.Actor{UserID: 7, Role: model.RoleResident}
	neighbor = model.Actor{UserID: 8, Role: model.RoleResident}
	admin    = model.Actor{UserID: 1, Role: model.RoleAdmin}
)

func local(y int, m time.Month, d, hh, mm int) time.Time {
	return testZone.ToInstant(time.Date(y, m, d, hh, mm, 0, 0, time.UTC))
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memAmenities struct {
	mu     sync.Mutex
	byID   map[uint64]model.Amenity
	nextID uint64
}

func newMemAmenities(as ...model.Amenity) *memAmenities {
	m := &memAmenities{byID: map[uint64]model.Amenity{}}
	for _, a := range as {
		m.byID[a.ID] = a
		if a.ID > m.nextID {
			m.nextID = a.ID
		}
	}
	return m
}

func (m *memAmenities) GetByID(_ context.Context, id uint64) (model.Amenity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return a, repository.ErrNotFound
	}
	return a, nil
}

func (m *memAmenities) List(_ context.Context, activeOnly bool) ([]model.Amenity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Amenity{}
	for _, a := range m.byID {
		if !activeOnly || a.IsActive {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memAmenities) Create(_ context.Context, a *model.Amenity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Name == a.Name {
			return repository.ErrConflict
		}
	}
	m.nextID++
	a.ID = m.nextID
	m.byID[a.ID] = *a
	return nil
}

func (m *memAmenities) Update(_ context.Context, a *model.Amenity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[a.ID] = *a
	return nil
}

// memReservations mirrors ReservationRepo: overlap checks on active
// writes and optimistic status checks on update.
type memReservations struct {
	mu     sync.Mutex
	byID   map[uint64]model.Reservation
	nextID uint64
}

func newMemReservations(rs ...model.Reservation) *memReservations {
	m := &memReservations{byID: map[uint64]model.Reservation{}, nextID: 100}
	for _, r := range rs {
		m.byID[r.ID] = r
	}
	return m
}

func (m *memReservations) GetByID(_ context.Context, id uint64) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return r, repository.ErrNotFound
	}
	return r, nil
}

func (m *memReservations) List(_ context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.byID {
		switch {
		case f.AmenityID != 0 && r.AmenityID != f.AmenityID,
			f.UserID != 0 && r.UserID != f.UserID,
			f.Status != "" && r.Status != f.Status,
			!f.From.IsZero() && !r.EndTime.After(f.From),
			!f.To.IsZero() && !r.StartTime.Before(f.To):
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memReservations) overlaps(r model.Reservation) bool {
	for _, other := range m.byID {
		if other.ID != r.ID && other.AmenityID == r.AmenityID && other.Status.Active() && other.Overlaps(r.StartTime, r.EndTime) {
			return true
		}
	}
	return false
}

func (m *memReservations) Create(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status.Active() && m.overlaps(*r) {
		return repository.ErrConflict
	}
	m.nextID++
	r.ID = m.nextID
	m.byID[r.ID] = *r
	return nil
}

func (m *memReservations) Update(_ context.Context, r *model.Reservation, expected model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrConflict
	}
	if r.Status.Active() && m.overlaps(*r) {
		return repository.ErrConflict
	}
	m.byID[r.ID] = *r
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

var errBrokerDown = errors.New("broker down")

func everyDay() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}

func jacuzzi() model.Amenity {
	return model.Amenity{
		ID:             1,
		Name:           "Jacuzzi",
		Type:           model.AmenityJacuzzi,
		Capacity:       6,
		OperatingHours: model.OperatingHours{Start: "06:00", End: "22:00", Days: everyDay()},
		IsActive:       true,
	}
}

func lounge() model.Amenity {
	return model.Amenity{
		ID:             2,
		Name:           "Lounge",
		Type:           model.AmenityLounge,
		Capacity:       12,
		OperatingHours: model.OperatingHours{Start: "10:00", End: "23:00", Days: everyDay()},
		IsActive:       true,
	}
}

type fixture struct {
	svc          *ReservationService
	reservations *memReservations
	events       *recordingPublisher
}

func newFixture(existing ...model.Reservation) fixture {
	core := booking.New(booking.Options{
		Offset: testOffset,
		Clock:  booking.ClockFunc(func() time.Time { return testNow }),
	})
	rs := newMemReservations(existing...)
	pub := &recordingPublisher{}
	svc := NewReservationService(core, newMemAmenities(jacuzzi(), lounge()), rs, pub, quietLogger())
	return fixture{svc: svc, reservations: rs, events: pub}
}
