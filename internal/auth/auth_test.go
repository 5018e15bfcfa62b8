package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memCredentials struct {
	value string
}

func (m *memCredentials) IsPasswordSet(context.Context) (bool, error) { return m.value != "", nil }
func (m *memCredentials) SetPassword(_ context.Context, v string) error {
	m.value = v
	return nil
}
func (m *memCredentials) StoredPassword(context.Context) (string, error) { return m.value, nil }

func newTestAuthenticator(store *memCredentials) *PasswordAuthenticator {
	a := NewPasswordAuthenticator(store)
	a.cost = bcrypt.MinCost
	return a
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	store := &memCredentials{}
	a := newTestAuthenticator(store)

	set, err := a.IsSet(ctx)
	require.NoError(t, err)
	require.False(t, set)
	require.ErrorIs(t, a.Verify(ctx, "anything"), ErrPasswordNotSet)

	require.ErrorIs(t, a.Set(ctx, "", "abc"), ErrWeakPassword)
	require.NoError(t, a.Set(ctx, "", "hunter2"))
	require.True(t, isBcryptHash(store.value))
	require.NotContains(t, store.value, "hunter2")

	require.NoError(t, a.Verify(ctx, "hunter2"))
	require.ErrorIs(t, a.Verify(ctx, "hunter3"), ErrInvalidCredentials)

	// Changing the password requires the current one.
	require.ErrorIs(t, a.Set(ctx, "wrong", "correct horse"), ErrInvalidCredentials)
	require.NoError(t, a.Set(ctx, "hunter2", "correct horse"))
	require.NoError(t, a.Verify(ctx, "correct horse"))
}

func TestLegacyPlainTextPasswordIsUpgraded(t *testing.T) {
	ctx := context.Background()
	store := &memCredentials{value: "letmein"}
	a := newTestAuthenticator(store)

	require.ErrorIs(t, a.Verify(ctx, "letmeout"), ErrInvalidCredentials)
	require.Equal(t, "letmein", store.value)

	require.NoError(t, a.Verify(ctx, "letmein"))
	require.True(t, isBcryptHash(store.value))
	require.NoError(t, a.Verify(ctx, "letmein"))
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret-key-with-enough-bytes", time.Hour)

	token, expires, err := m.Generate()
	require.NoError(t, err)
	require.True(t, expires.After(time.Now()))

	claims, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, sessionSubject, claims.Subject)

	other := NewJWTManager("a-different-secret-entirely-here", time.Hour)
	_, err = other.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("test-secret-key-with-enough-bytes", -time.Minute)
	old, _, err := expired.Generate()
	require.NoError(t, err)
	_, err = m.Validate(old)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate(strings.Repeat("x", 20))
	require.ErrorIs(t, err, ErrInvalidToken)
}
