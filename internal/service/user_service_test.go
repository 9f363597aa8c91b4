package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/models"
)

func TestSignUpAssignsSequentialIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.users.SignUp(ctx, "Alice@Example.com", "Passw0rd!", "")
	require.NoError(t, err)
	second, err := f.users.SignUp(ctx, "bob@example.com", "Passw0rd!", "")
	require.NoError(t, err)

	assert.Equal(t, "00002", first.UserID)
	assert.Equal(t, "00003", second.UserID)
	assert.Equal(t, "alice@example.com", first.Email)
	assert.Equal(t, models.RoleUser, first.Role)
	assert.NotEqual(t, "Passw0rd!", first.Password)
	assert.Zero(t, first.Balance)
	assert.NotNil(t, first.Stakes)
}

func TestSignUpDuplicateEmailDoesNotConsumeID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.SignUp(ctx, "alice@example.com", "Passw0rd!", "")
	require.NoError(t, err)

	_, err = f.users.SignUp(ctx, "ALICE@example.com", "An0therPass", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailTaken)

	users, err := f.users.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	next, err := f.users.SignUp(ctx, "bob@example.com", "Passw0rd!", "")
	require.NoError(t, err)
	assert.Equal(t, "00003", next.UserID)
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]struct{ email, password string }{
		"bad email":    {"not-an-email", "Passw0rd!"},
		"short":        {"a@example.com", "Pa0"},
		"no upper":     {"a@example.com", "passw0rd!"},
		"no lower":     {"a@example.com", "PASSW0RD!"},
		"no digit":     {"a@example.com", "Password!"},
		"empty e-mail": {"", "Passw0rd!"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.users.SignUp(ctx, tc.email, tc.password, "")
			assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)
		})
	}
}

func TestConcurrentSignUpsGetDistinctIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := f.users.SignUp(ctx, FormatUserID(int64(i))+"@example.com", "Passw0rd!", "")
			if assert.NoError(t, err) {
				ids <- u.UserID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		assert.NotEqual(t, models.AdminUserID, id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.SignUp(ctx, "alice@example.com", "Passw0rd!", "")
	require.NoError(t, err)

	user, err := f.users.SignIn(ctx, " Alice@example.com ", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, user.UserID)

	_, err = f.users.SignIn(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, apperrors.Is(err, apperrors.KindAuth))

	_, err = f.users.SignIn(ctx, "nobody@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpStoresName(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.SignUp(context.Background(), "carol@example.com", "Passw0rd!", "  Carol  ")
	require.NoError(t, err)
	assert.Equal(t, "Carol", user.Name)

	stored, err := f.users.GetUser(context.Background(), user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", stored.Name)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.users.SignUp(ctx, "alice@example.com", "Passw0rd!", "")
	require.NoError(t, err)

	err = f.users.ChangePassword(ctx, user.UserID, "wrong", "N3wPassword")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.users.ChangePassword(ctx, user.UserID, "Passw0rd!", "weak")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	err = f.users.ChangePassword(ctx, "99999", "Passw0rd!", "N3wPassword")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	require.NoError(t, f.users.ChangePassword(ctx, user.UserID, "Passw0rd!", "N3wPassword"))

	_, err = f.users.SignIn(ctx, "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.SignIn(ctx, "alice@example.com", "N3wPassword")
	require.NoError(t, err)

	logs, err := f.logs.GetLogsByUserID(ctx, user.UserID, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "ChangePassword", logs[0].Action)
}

func TestGetUserNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.GetUser(context.Background(), "99999")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestFormatUserID(t *testing.T) {
	assert.Equal(t, "00001", FormatUserID(1))
	assert.Equal(t, "00042", FormatUserID(42))
	assert.Equal(t, "123456", FormatUserID(123456))
}
