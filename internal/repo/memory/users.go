package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

func (q *queries) CreateUser(_ context.Context, u *repo.User) error {
	defer q.lock()()

	if _, taken := q.st.phones[u.Phone]; taken {
		return repo.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	now := q.timestamp()
	u.CreatedAt, u.UpdatedAt = now, now

	q.st.users[u.ID] = *u
	q.st.phones[u.Phone] = u.ID
	return nil
}

func (q *queries) GetUser(_ context.Context, id uuid.UUID) (*repo.User, error) {
	defer q.lock()()

	u, ok := q.st.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (q *queries) GetUserByPhone(_ context.Context, phone string) (*repo.User, error) {
	defer q.lock()()

	id, ok := q.st.phones[phone]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u := q.st.users[id]
	return &u, nil
}

func (q *queries) CreatePet(_ context.Context, p *repo.Pet) error {
	defer q.lock()()

	if _, ok := q.st.users[p.OwnerID]; !ok {
		return repo.ErrNotFound
	}
	if p.ID == uuid.Nil {
		p.ID = newID()
	}
	now := q.timestamp()
	p.CreatedAt, p.UpdatedAt = now, now

	q.st.pets[p.ID] = *p
	return nil
}

func (q *queries) GetPet(_ context.Context, id uuid.UUID) (*repo.Pet, error) {
	defer q.lock()()

	p, ok := q.st.pets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (q *queries) ListPetsByOwner(_ context.Context, ownerID uuid.UUID) ([]repo.Pet, error) {
	defer q.lock()()

	var out []repo.Pet
	for _, p := range q.st.pets {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
