package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

func (q *queries) ListLabTests(ctx context.Context) ([]repo.LabTest, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, price FROM lab_tests ORDER BY id`)
	if err != nil {
		return nil, mapError("list lab tests", err)
	}
	return collectLabTests(rows)
}

func (q *queries) GetLabTests(ctx context.Context, ids []int64) ([]repo.LabTest, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, price FROM lab_tests WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, mapError("get lab tests", err)
	}
	return collectLabTests(rows)
}

func collectLabTests(rows pgx.Rows) ([]repo.LabTest, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.LabTest, error) {
		var t repo.LabTest
		err := row.Scan(&t.ID, &t.Name, &t.Price)
		return t, err
	})
	if err != nil {
		return nil, mapError("scan lab tests", err)
	}
	return out, nil
}

const productSelect = `
	SELECT p.id, p.category_id, c.name, p.name, p.kind, p.price, p.stock
	FROM products p
	JOIN categories c ON c.id = p.category_id`

func collectProducts(rows pgx.Rows) ([]repo.Product, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.Product, error) {
		var p repo.Product
		err := row.Scan(&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Kind, &p.Price, &p.Stock)
		return p, err
	})
	if err != nil {
		return nil, mapError("scan products", err)
	}
	return out, nil
}

func (q *queries) ListProducts(ctx context.Context, kind *repo.ProductKind) ([]repo.Product, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if kind != nil {
		rows, err = q.db.Query(ctx, productSelect+` WHERE p.kind = $1 ORDER BY p.id`, string(*kind))
	} else {
		rows, err = q.db.Query(ctx, productSelect+` ORDER BY p.id`)
	}
	if err != nil {
		return nil, mapError("list products", err)
	}
	return collectProducts(rows)
}

func (q *queries) GetProducts(ctx context.Context, ids []int64) ([]repo.Product, error) {
	rows, err := q.db.Query(ctx, productSelect+` WHERE p.id = ANY($1) ORDER BY p.id`, ids)
	if err != nil {
		return nil, mapError("get products", err)
	}
	return collectProducts(rows)
}

func (q *queries) CreateMedicalRecord(ctx context.Context, r *repo.MedicalRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewV7())
	}
	tests := r.Tests
	if tests == nil {
		tests = []repo.TestLine{}
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO medical_records (id, appointment_id, pet_id, weight, symptoms, diagnosis, treatment, tests, test_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`,
		r.ID,
		r.AppointmentID,
		r.PetID,
		r.Weight,
		r.Symptoms,
		r.Diagnosis,
		r.Treatment,
		tests,
		r.TestCost,
	).Scan(&r.CreatedAt)
	return mapError("insert medical record", err)
}

func (q *queries) ListMedicalRecords(ctx context.Context, f repo.MedicalRecordFilter) ([]repo.MedicalRecord, error) {
	var appt, pet *string
	if f.AppointmentID != nil {
		s := f.AppointmentID.String()
		appt = &s
	}
	if f.PetID != nil {
		s := f.PetID.String()
		pet = &s
	}

	rows, err := q.db.Query(ctx, `
		SELECT id, appointment_id, pet_id, weight, symptoms, diagnosis, treatment, tests, test_cost, created_at
		FROM medical_records
		WHERE ($1::uuid IS NULL OR appointment_id = $1::uuid)
		  AND ($2::uuid IS NULL OR pet_id = $2::uuid)
		ORDER BY created_at, id
	`, appt, pet)
	if err != nil {
		return nil, mapError("list medical records", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.MedicalRecord, error) {
		var r repo.MedicalRecord
		err := row.Scan(
			&r.ID, &r.AppointmentID, &r.PetID, &r.Weight, &r.Symptoms,
			&r.Diagnosis, &r.Treatment, &r.Tests, &r.TestCost, &r.CreatedAt,
		)
		return r, err
	})
	if err != nil {
		return nil, mapError("list medical records", err)
	}
	return out, nil
}

// ConsumeProduct guards the decrement with stock >= quantity so concurrent
// completions cannot drive stock negative.
func (q *queries) ConsumeProduct(ctx context.Context, u *repo.InventoryUsage) error {
	err := q.db.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING name
	`, u.ProductID, u.Quantity).Scan(&u.ProductName)
	if err != nil {
		if repo.IsNotFound(mapError("consume product", err)) {
			var exists bool
			if err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, u.ProductID).Scan(&exists); err != nil {
				return mapError("check product", err)
			}
			if exists {
				return repo.ErrInsufficientStock
			}
			return repo.ErrNotFound
		}
		return mapError("consume product", err)
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.Must(uuid.NewV7())
	}
	err = q.db.QueryRow(ctx, `
		INSERT INTO inventory_usage (id, appointment_id, pet_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, u.ID, u.AppointmentID, u.PetID, u.ProductID, u.Quantity, u.UnitPrice).Scan(&u.CreatedAt)
	return mapError("insert inventory usage", err)
}

func (q *queries) ListInventoryUsage(ctx context.Context, appointmentID uuid.UUID) ([]repo.InventoryUsage, error) {
	rows, err := q.db.Query(ctx, `
		SELECT iu.id, iu.appointment_id, iu.pet_id, iu.product_id, p.name, iu.quantity, iu.unit_price, iu.created_at
		FROM inventory_usage iu
		JOIN products p ON p.id = iu.product_id
		WHERE iu.appointment_id = $1
		ORDER BY iu.created_at, iu.id
	`, appointmentID)
	if err != nil {
		return nil, mapError("list inventory usage", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.InventoryUsage, error) {
		var u repo.InventoryUsage
		err := row.Scan(&u.ID, &u.AppointmentID, &u.PetID, &u.ProductID, &u.ProductName, &u.Quantity, &u.UnitPrice, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, mapError("list inventory usage", err)
	}
	return out, nil
}

func (q *queries) ListVaccinations(ctx context.Context, petID uuid.UUID) ([]repo.Vaccination, error) {
	rows, err := q.db.Query(ctx, `
		SELECT iu.appointment_id, to_char(a.appointment_date, 'YYYY-MM-DD'), iu.pet_id,
		       p.id, p.name, iu.quantity, iu.created_at
		FROM inventory_usage iu
		JOIN products p ON p.id = iu.product_id
		JOIN appointments a ON a.id = iu.appointment_id
		WHERE iu.pet_id = $1 AND p.kind = 'vaccine' AND a.status = 'completed'
		ORDER BY a.appointment_date DESC, iu.created_at DESC
	`, petID)
	if err != nil {
		return nil, mapError("list vaccinations", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.Vaccination, error) {
		var v repo.Vaccination
		err := row.Scan(&v.AppointmentID, &v.AppointmentDate, &v.PetID, &v.ProductID, &v.Vaccine, &v.Quantity, &v.AdministeredAt)
		return v, err
	})
	if err != nil {
		return nil, mapError("list vaccinations", err)
	}
	return out, nil
}
