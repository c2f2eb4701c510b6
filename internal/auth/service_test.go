package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lazani-bestileo/bestileo-erp/internal/users"
)

type fakeDirectory struct {
	byUsername map[string]*users.User
}

func (f *fakeDirectory) GetByUsername(_ context.Context, username string) (*users.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin(t *testing.T) {
	svc := NewService(&fakeDirectory{byUsername: map[string]*users.User{
		"rakoto": {
			ID:           1,
			Username:     "rakoto",
			PasswordHash: hash(t, "vendanges2026"),
			Role:         users.RoleManager,
		},
	}})

	u, err := svc.Login(context.Background(), LoginRequest{Username: "rakoto", Password: "vendanges2026"})
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(&fakeDirectory{byUsername: map[string]*users.User{
		"rakoto": {Username: "rakoto", PasswordHash: hash(t, "vendanges2026")},
	}})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "rakoto", Password: "mauvais"})
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewService(&fakeDirectory{byUsername: map[string]*users.User{}})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "inconnu", Password: "x"})
	require.ErrorIs(t, err, ErrBadCredentials)
}
