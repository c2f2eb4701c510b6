package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	users  map[int64]*User
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[int64]*User{}}
}

func (f *fakeRepo) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) Create(_ context.Context, u User) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return 0, ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return 0, ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = &u
	return u.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "username":
			u.Username = value.(string)
		case "email":
			u.Email = value.(string)
		case "role":
			u.Role = value.(Role)
		case "full_name":
			u.FullName = value.(string)
		case "password_hash":
			u.PasswordHash = value.(string)
		}
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "rakoto",
		Email:    "rakoto@bestileo.mg",
		Password: "vendanges2026",
		FullName: "Rakoto Andrianina",
	})
	require.NoError(t, err)
	require.Equal(t, RoleEmployee, u.Role)
	require.NotEqual(t, "vendanges2026", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("vendanges2026")))
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "rakoto",
		Email:    "rakoto@bestileo.mg",
		Password: "vendanges2026",
		FullName: "Rakoto Andrianina",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Username: "rakoto",
		Email:    "autre@bestileo.mg",
		Password: "millesime2025",
		FullName: "Autre Rakoto",
	})
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUpdatePassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "vola",
		Email:    "vola@bestileo.mg",
		Password: "ancien-mdp",
		FullName: "Vola Rasoanaivo",
		Role:     RoleManager,
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword(context.Background(), u.ID, "nouveau-mdp"))

	updated, err := repo.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("nouveau-mdp")))
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("ancien-mdp")))

	require.ErrorIs(t, svc.UpdatePassword(context.Background(), 999, "x-mdp-999"), ErrNotFound)
}

func TestUpdateUserPartial(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "hery",
		Email:    "hery@bestileo.mg",
		Password: "cave-2026",
		FullName: "Hery Rabe",
	})
	require.NoError(t, err)

	role := RoleAdmin
	updated, err := svc.Update(context.Background(), u.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, updated.Role)
	require.Equal(t, "hery", updated.Username)
}
