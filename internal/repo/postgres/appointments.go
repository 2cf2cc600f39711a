package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

func (q *queries) ListServices(ctx context.Context) ([]repo.Service, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, description FROM services ORDER BY id`)
	if err != nil {
		return nil, mapError("list services", err)
	}
	return collectServices(rows)
}

func (q *queries) GetServicesByName(ctx context.Context, names []string) ([]repo.Service, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, description FROM services WHERE name = ANY($1) ORDER BY id`, names)
	if err != nil {
		return nil, mapError("get services", err)
	}
	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]repo.Service, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.Service, error) {
		var s repo.Service
		err := row.Scan(&s.ID, &s.Name, &s.Description)
		return s, err
	})
	if err != nil {
		return nil, mapError("scan services", err)
	}
	return out, nil
}

// ReserveSlot is a single conditional upsert: the WHERE on the conflict
// branch suppresses the update (and the returned row) once the slot is full.
func (q *queries) ReserveSlot(ctx context.Context, date, time string, capacity int) (int, error) {
	var booked int
	err := q.db.QueryRow(ctx, `
		INSERT INTO slot_counters (slot_date, slot_time, booked)
		VALUES ($1::date, $2, 1)
		ON CONFLICT (slot_date, slot_time)
		DO UPDATE SET booked = slot_counters.booked + 1
		WHERE slot_counters.booked < $3
		RETURNING booked
	`, date, time, capacity).Scan(&booked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repo.ErrSlotFull
		}
		return 0, mapError("reserve slot", err)
	}
	if booked > capacity {
		// A fresh row always starts at 1, so this only trips for capacity < 1.
		return 0, repo.ErrSlotFull
	}
	return booked, nil
}

func (q *queries) ReleaseSlot(ctx context.Context, date, time string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE slot_counters SET booked = booked - 1
		WHERE slot_date = $1::date AND slot_time = $2 AND booked > 0
	`, date, time)
	return mapError("release slot", err)
}

func (q *queries) SlotCounts(ctx context.Context, date string) (map[string]int, error) {
	rows, err := q.db.Query(ctx, `
		SELECT slot_time, booked FROM slot_counters
		WHERE slot_date = $1::date AND booked > 0
	`, date)
	if err != nil {
		return nil, mapError("slot counts", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, mapError("scan slot count", err)
		}
		out[t] = n
	}
	return out, mapError("slot counts", rows.Err())
}

func (q *queries) CreateAppointment(ctx context.Context, a *repo.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.Must(uuid.NewV7())
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO appointments (id, customer_id, appointment_date, appointment_time, status, notes)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		RETURNING created_at, updated_at
	`, a.ID, a.CustomerID, a.Date, a.Time, string(a.Status), a.Notes).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapError("insert appointment", err)
	}

	for i, p := range a.Pets {
		_, err := q.db.Exec(ctx, `
			INSERT INTO appointment_pets (appointment_id, pet_id, position, grooming_details, dental_details)
			VALUES ($1, $2, $3, $4, $5)
		`, a.ID, p.ID, i, p.GroomingDetails, p.DentalDetails)
		if err != nil {
			return mapError("insert appointment pet", err)
		}
	}
	for _, s := range a.Services {
		_, err := q.db.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id) VALUES ($1, $2)
		`, a.ID, s.ID)
		if err != nil {
			return mapError("insert appointment service", err)
		}
	}
	return nil
}

const appointmentSelect = `
	SELECT a.id, a.customer_id, to_char(a.appointment_date, 'YYYY-MM-DD'), a.appointment_time,
	       a.status, a.notes, a.created_at, a.updated_at,
	       u.id, u.role, u.first_name, u.last_name, u.phone, u.email, u.password_hash, u.created_at, u.updated_at
	FROM appointments a
	JOIN users u ON u.id = a.customer_id`

func scanAppointment(row pgx.Row) (repo.Appointment, error) {
	var a repo.Appointment
	var u repo.User
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.Date, &a.Time,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		&u.ID, &u.Role, &u.FirstName, &u.LastName, &u.Phone, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	a.Customer = &u
	return a, err
}

func (q *queries) GetAppointment(ctx context.Context, id uuid.UUID) (*repo.Appointment, error) {
	a, err := scanAppointment(q.db.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, mapError("get appointment", err)
	}
	list := []repo.Appointment{a}
	if err := q.loadGraph(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (q *queries) ListAppointments(ctx context.Context, f repo.AppointmentFilter) ([]repo.Appointment, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != nil {
		add("a.customer_id = $%d", *f.CustomerID)
	}
	if f.Status != nil {
		add("a.status = $%d", string(*f.Status))
	}
	if f.DateFrom != "" {
		add("a.appointment_date >= $%d::date", f.DateFrom)
	}
	if f.DateTo != "" {
		add("a.appointment_date <= $%d::date", f.DateTo)
	}

	sql := appointmentSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY a.appointment_date DESC, a.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list appointments", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.Appointment, error) {
		return scanAppointment(row)
	})
	if err != nil {
		return nil, mapError("list appointments", err)
	}
	if err := q.loadGraph(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadGraph fills pets and services for each appointment in two queries.
func (q *queries) loadGraph(ctx context.Context, list []repo.Appointment) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	index := make(map[uuid.UUID]int, len(list))
	for i := range list {
		ids[i] = list[i].ID.String()
		index[list[i].ID] = i
		list[i].Pets = []repo.AppointmentPet{}
		list[i].Services = []repo.Service{}
	}

	rows, err := q.db.Query(ctx, `
		SELECT ap.appointment_id, p.id, p.owner_id, p.type, p.breed, p.name, p.created_at, p.updated_at,
		       ap.grooming_details, ap.dental_details
		FROM appointment_pets ap
		JOIN pets p ON p.id = ap.pet_id
		WHERE ap.appointment_id = ANY($1::uuid[])
		ORDER BY ap.position
	`, ids)
	if err != nil {
		return mapError("load appointment pets", err)
	}
	defer rows.Close()
	for rows.Next() {
		var apptID uuid.UUID
		var p repo.AppointmentPet
		if err := rows.Scan(
			&apptID, &p.ID, &p.OwnerID, &p.Type, &p.Breed, &p.Name, &p.CreatedAt, &p.UpdatedAt,
			&p.GroomingDetails, &p.DentalDetails,
		); err != nil {
			return mapError("scan appointment pet", err)
		}
		i := index[apptID]
		list[i].Pets = append(list[i].Pets, p)
	}
	if err := rows.Err(); err != nil {
		return mapError("load appointment pets", err)
	}

	srows, err := q.db.Query(ctx, `
		SELECT asv.appointment_id, s.id, s.name, s.description
		FROM appointment_services asv
		JOIN services s ON s.id = asv.service_id
		WHERE asv.appointment_id = ANY($1::uuid[])
		ORDER BY s.id
	`, ids)
	if err != nil {
		return mapError("load appointment services", err)
	}
	defer srows.Close()
	for srows.Next() {
		var apptID uuid.UUID
		var s repo.Service
		if err := srows.Scan(&apptID, &s.ID, &s.Name, &s.Description); err != nil {
			return mapError("scan appointment service", err)
		}
		i := index[apptID]
		list[i].Services = append(list[i].Services, s)
	}
	return mapError("load appointment services", srows.Err())
}

func (q *queries) TransitionAppointment(ctx context.Context, id uuid.UUID, from []repo.AppointmentStatus, to repo.AppointmentStatus) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)
	`, id, string(to), statusStrings(from))
	if err != nil {
		return mapError("transition appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return q.guardFailure(ctx, "appointments", id)
	}
	return nil
}

func (q *queries) RescheduleAppointment(ctx context.Context, id uuid.UUID, from []repo.AppointmentStatus, date, time string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE appointments SET appointment_date = $2::date, appointment_time = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4)
	`, id, date, time, statusStrings(from))
	if err != nil {
		return mapError("reschedule appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return q.guardFailure(ctx, "appointments", id)
	}
	return nil
}

// DeleteAppointment removes the row; pet links, service links, records and
// usage go with it through ON DELETE CASCADE.
func (q *queries) DeleteAppointment(ctx context.Context, id uuid.UUID, from []repo.AppointmentStatus) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND status = ANY($2)`, id, statusStrings(from))
	if err != nil {
		return mapError("delete appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return q.guardFailure(ctx, "appointments", id)
	}
	return nil
}
