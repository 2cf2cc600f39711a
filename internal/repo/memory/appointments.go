package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

func (q *queries) ListServices(_ context.Context) ([]repo.Service, error) {
	defer q.lock()()

	out := make([]repo.Service, 0, len(q.st.services))
	for _, s := range q.st.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) GetServicesByName(_ context.Context, names []string) ([]repo.Service, error) {
	defer q.lock()()

	var out []repo.Service
	for _, s := range q.st.services {
		if slices.Contains(names, s.Name) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) ReserveSlot(_ context.Context, date, time string, capacity int) (int, error) {
	defer q.lock()()

	k := slotKey{date: date, time: time}
	if q.st.slots[k] >= capacity {
		return 0, repo.ErrSlotFull
	}
	q.st.slots[k]++
	return q.st.slots[k], nil
}

func (q *queries) ReleaseSlot(_ context.Context, date, time string) error {
	defer q.lock()()

	k := slotKey{date: date, time: time}
	if q.st.slots[k] > 0 {
		q.st.slots[k]--
	}
	return nil
}

func (q *queries) SlotCounts(_ context.Context, date string) (map[string]int, error) {
	defer q.lock()()

	out := map[string]int{}
	for k, n := range q.st.slots {
		if k.date == date && n > 0 {
			out[k.time] = n
		}
	}
	return out, nil
}

func (q *queries) CreateAppointment(_ context.Context, a *repo.Appointment) error {
	defer q.lock()()

	if _, ok := q.st.users[a.CustomerID]; !ok {
		return repo.ErrNotFound
	}

	row := appointmentRow{}
	for _, p := range a.Pets {
		if _, ok := q.st.pets[p.ID]; !ok {
			return repo.ErrNotFound
		}
		row.pets = append(row.pets, petLink{petID: p.ID, grooming: p.GroomingDetails, dental: p.DentalDetails})
	}
	for _, s := range a.Services {
		if _, ok := q.st.services[s.ID]; !ok {
			return repo.ErrNotFound
		}
		row.serviceIDs = append(row.serviceIDs, s.ID)
	}

	if a.ID == uuid.Nil {
		a.ID = newID()
	}
	now := q.timestamp()
	a.CreatedAt, a.UpdatedAt = now, now

	row.appt = *a
	row.appt.Customer, row.appt.Pets, row.appt.Services = nil, nil, nil
	q.st.appointments[a.ID] = row
	return nil
}

func (q *queries) GetAppointment(_ context.Context, id uuid.UUID) (*repo.Appointment, error) {
	defer q.lock()()

	row, ok := q.st.appointments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	a := q.load(row)
	return &a, nil
}

func (q *queries) load(row appointmentRow) repo.Appointment {
	a := row.appt
	if u, ok := q.st.users[a.CustomerID]; ok {
		a.Customer = &u
	}
	a.Pets = make([]repo.AppointmentPet, 0, len(row.pets))
	for _, l := range row.pets {
		a.Pets = append(a.Pets, repo.AppointmentPet{
			Pet:             q.st.pets[l.petID],
			GroomingDetails: l.grooming,
			DentalDetails:   l.dental,
		})
	}
	a.Services = make([]repo.Service, 0, len(row.serviceIDs))
	for _, id := range row.serviceIDs {
		a.Services = append(a.Services, q.st.services[id])
	}
	return a
}

func (q *queries) ListAppointments(_ context.Context, f repo.AppointmentFilter) ([]repo.Appointment, error) {
	defer q.lock()()

	var rows []appointmentRow
	for _, row := range q.st.appointments {
		a := row.appt
		if f.CustomerID != nil && a.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.DateFrom != "" && a.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && a.Date > f.DateTo {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].appt, rows[j].appt
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.ID.String() > b.ID.String()
	})

	if f.Offset > 0 {
		if f.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[f.Offset:]
		}
	}
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}

	out := make([]repo.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, q.load(row))
	}
	return out, nil
}

// guard returns the row for id if its status is one of from.
func (q *queries) guard(id uuid.UUID, from []repo.AppointmentStatus) (appointmentRow, error) {
	row, ok := q.st.appointments[id]
	if !ok {
		return row, repo.ErrNotFound
	}
	if !slices.Contains(from, row.appt.Status) {
		return row, repo.ErrStaleState
	}
	return row, nil
}

func (q *queries) TransitionAppointment(_ context.Context, id uuid.UUID, from []repo.AppointmentStatus, to repo.AppointmentStatus) error {
	defer q.lock()()

	row, err := q.guard(id, from)
	if err != nil {
		return err
	}
	row.appt.Status = to
	row.appt.UpdatedAt = q.timestamp()
	q.st.appointments[id] = row
	return nil
}

func (q *queries) RescheduleAppointment(_ context.Context, id uuid.UUID, from []repo.AppointmentStatus, date, time string) error {
	defer q.lock()()

	row, err := q.guard(id, from)
	if err != nil {
		return err
	}
	row.appt.Date, row.appt.Time = date, time
	row.appt.UpdatedAt = q.timestamp()
	q.st.appointments[id] = row
	return nil
}

func (q *queries) DeleteAppointment(_ context.Context, id uuid.UUID, from []repo.AppointmentStatus) error {
	defer q.lock()()

	if _, err := q.guard(id, from); err != nil {
		return err
	}
	delete(q.st.appointments, id)

	q.st.records = slices.DeleteFunc(q.st.records, func(r repo.MedicalRecord) bool { return r.AppointmentID == id })
	q.st.usage = slices.DeleteFunc(q.st.usage, func(u repo.InventoryUsage) bool { return u.AppointmentID == id })
	return nil
}
