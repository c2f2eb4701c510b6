package httpx

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategorizedErrors(t *testing.T) {
	err := NotFound("Commande non trouvée")
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrConflict))
	require.Equal(t, "Commande non trouvée", err.Error())

	wrapped := fmt.Errorf("create: %w", Conflict("Numéro déjà utilisé"))
	require.True(t, errors.Is(wrapped, ErrConflict))
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NotFound("absent"), 404},
		{Conflict("doublon"), 409},
		{Invalid("champ requis"), 400},
		{Unauthorized("identifiants incorrects"), 401},
		{errors.New("pg: connection refused"), 500},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestIsInternal(t *testing.T) {
	require.False(t, IsInternal(Invalid("x")))
	require.True(t, IsInternal(errors.New("boom")))
}
