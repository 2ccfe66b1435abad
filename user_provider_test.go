package accounts_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts"
)

// stubUserStore returns a canned user or error for any identifier
type stubUserStore struct {
	user *accounts.User
	err  error
}

func (s stubUserStore) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	return s.user, s.err
}

func TestVerifyIdentity(t *testing.T) {
	uid := uuid.New()

	hash, err := accounts.HashPassword("ghost-p4ss")
	require.NoError(t, err)

	user := &accounts.User{
		ID:           uid,
		Username:     "jsnow",
		Email:        "jon@example.com",
		PasswordHash: hash,
	}

	t.Run("valid credentials yield an identity", func(t *testing.T) {
		provider := accounts.NewUserProvider(stubUserStore{user: user})

		identity, err := provider.VerifyIdentity(context.Background(), "jsnow", "ghost-p4ss")
		require.NoError(t, err)

		assert.Equal(t, uid.String(), identity.ID())
		assert.Equal(t, "jsnow", identity.Username())
		assert.Equal(t, "jon@example.com", identity.Email())
	})

	t.Run("wrong password", func(t *testing.T) {
		provider := accounts.NewUserProvider(stubUserStore{user: user})

		_, err := provider.VerifyIdentity(context.Background(), "jsnow", "wrong")
		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	})

	t.Run("unknown identifier returns the same error as a wrong password", func(t *testing.T) {
		provider := accounts.NewUserProvider(stubUserStore{err: repository.NewRecordNotFound()})

		_, err := provider.VerifyIdentity(context.Background(), "nobody", "ghost-p4ss")
		require.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	})

	t.Run("store failures are not masked as bad credentials", func(t *testing.T) {
		provider := accounts.NewUserProvider(stubUserStore{
			err: goerrors.New("connection refused", goerrors.CategoryInternal),
		})

		_, err := provider.VerifyIdentity(context.Background(), "jsnow", "ghost-p4ss")
		require.Error(t, err)
		assert.NotErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	uid := uuid.New()
	user := &accounts.User{ID: uid, Username: "jsnow", Email: "jon@example.com"}

	t.Run("existing user", func(t *testing.T) {
		provider := accounts.NewUserProvider(stubUserStore{user: user})

		identity, err := provider.FindIdentityByIdentifier(context.Background(), "jsnow")
		require.NoError(t, err)
		assert.Equal(t, uid.String(), identity.ID())
	})

	t.Run("missing user", func(t *testing.T) {
		provider := accounts.NewUserProvider(stubUserStore{err: repository.NewRecordNotFound()})

		_, err := provider.FindIdentityByIdentifier(context.Background(), "nobody")
		assert.Error(t, err)
	})
}
