package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

func (q *queries) ListLabTests(_ context.Context) ([]repo.LabTest, error) {
	defer q.lock()()

	out := make([]repo.LabTest, 0, len(q.st.labTests))
	for _, t := range q.st.labTests {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) GetLabTests(_ context.Context, ids []int64) ([]repo.LabTest, error) {
	defer q.lock()()

	var out []repo.LabTest
	for _, t := range q.st.labTests {
		if slices.Contains(ids, t.ID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) ListProducts(_ context.Context, kind *repo.ProductKind) ([]repo.Product, error) {
	defer q.lock()()

	var out []repo.Product
	for _, p := range q.st.products {
		if kind != nil && p.Kind != *kind {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) GetProducts(_ context.Context, ids []int64) ([]repo.Product, error) {
	defer q.lock()()

	var out []repo.Product
	for _, p := range q.st.products {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) CreateMedicalRecord(_ context.Context, r *repo.MedicalRecord) error {
	defer q.lock()()

	if _, ok := q.st.appointments[r.AppointmentID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := q.st.pets[r.PetID]; !ok {
		return repo.ErrNotFound
	}
	for _, existing := range q.st.records {
		if existing.AppointmentID == r.AppointmentID && existing.PetID == r.PetID {
			return repo.ErrDuplicate
		}
	}

	if r.ID == uuid.Nil {
		r.ID = newID()
	}
	r.CreatedAt = q.timestamp()
	rec := *r
	rec.Tests = slices.Clone(r.Tests)
	q.st.records = append(q.st.records, rec)
	return nil
}

func (q *queries) ListMedicalRecords(_ context.Context, f repo.MedicalRecordFilter) ([]repo.MedicalRecord, error) {
	defer q.lock()()

	var out []repo.MedicalRecord
	for _, r := range q.st.records {
		if f.AppointmentID != nil && r.AppointmentID != *f.AppointmentID {
			continue
		}
		if f.PetID != nil && r.PetID != *f.PetID {
			continue
		}
		r.Tests = slices.Clone(r.Tests)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (q *queries) ConsumeProduct(_ context.Context, u *repo.InventoryUsage) error {
	defer q.lock()()

	p, ok := q.st.products[u.ProductID]
	if !ok {
		return repo.ErrNotFound
	}
	if _, ok := q.st.appointments[u.AppointmentID]; !ok {
		return repo.ErrNotFound
	}
	if p.Stock < u.Quantity {
		return repo.ErrInsufficientStock
	}
	p.Stock -= u.Quantity
	q.st.products[p.ID] = p

	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	u.ProductName = p.Name
	u.CreatedAt = q.timestamp()
	q.st.usage = append(q.st.usage, *u)
	return nil
}

func (q *queries) ListInventoryUsage(_ context.Context, appointmentID uuid.UUID) ([]repo.InventoryUsage, error) {
	defer q.lock()()

	var out []repo.InventoryUsage
	for _, u := range q.st.usage {
		if u.AppointmentID == appointmentID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (q *queries) ListVaccinations(_ context.Context, petID uuid.UUID) ([]repo.Vaccination, error) {
	defer q.lock()()

	var out []repo.Vaccination
	for _, u := range q.st.usage {
		if u.PetID != petID {
			continue
		}
		p, ok := q.st.products[u.ProductID]
		if !ok || p.Kind != repo.KindVaccine {
			continue
		}
		row, ok := q.st.appointments[u.AppointmentID]
		if !ok || row.appt.Status != repo.StatusCompleted {
			continue
		}
		out = append(out, repo.Vaccination{
			AppointmentID:   u.AppointmentID,
			AppointmentDate: row.appt.Date,
			PetID:           u.PetID,
			ProductID:       p.ID,
			Vaccine:         p.Name,
			Quantity:        u.Quantity,
			AdministeredAt:  u.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentDate > out[j].AppointmentDate })
	return out, nil
}
