package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

const userColumns = `id, role, first_name, last_name, phone, email, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*repo.User, error) {
	var u repo.User
	if err := row.Scan(
		&u.ID,
		&u.Role,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *queries) CreateUser(ctx context.Context, u *repo.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.Must(uuid.NewV7())
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (id, role, first_name, last_name, phone, email, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`,
		u.ID,
		string(u.Role),
		u.FirstName,
		u.LastName,
		u.Phone,
		u.Email,
		u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapError("insert user", err)
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get user", err)
	}
	return u, nil
}

func (q *queries) GetUserByPhone(ctx context.Context, phone string) (*repo.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if err != nil {
		return nil, mapError("get user by phone", err)
	}
	return u, nil
}

const petColumns = `id, owner_id, type, breed, name, created_at, updated_at`

func scanPet(row pgx.Row) (repo.Pet, error) {
	var p repo.Pet
	err := row.Scan(&p.ID, &p.OwnerID, &p.Type, &p.Breed, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *queries) CreatePet(ctx context.Context, p *repo.Pet) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV7())
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO pets (id, owner_id, type, breed, name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, p.ID, p.OwnerID, string(p.Type), p.Breed, p.Name).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError("insert pet", err)
}

func (q *queries) GetPet(ctx context.Context, id uuid.UUID) (*repo.Pet, error) {
	p, err := scanPet(q.db.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get pet", err)
	}
	return &p, nil
}

func (q *queries) ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]repo.Pet, error) {
	rows, err := q.db.Query(ctx, `SELECT `+petColumns+` FROM pets WHERE owner_id = $1 ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, mapError("list pets", err)
	}
	pets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repo.Pet, error) {
		return scanPet(row)
	})
	if err != nil {
		return nil, mapError("list pets", err)
	}
	return pets, nil
}
